package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func splitWhole(s string) SplitResult {
	sp := NewSplitter(nil)
	sp.Feed(s)
	return sp.Finish()
}

func splitPerByte(s string, observer func(string)) SplitResult {
	sp := NewSplitter(observer)
	for i := 0; i < len(s); i++ {
		sp.Feed(s[i : i+1])
	}
	return sp.Finish()
}

func TestSplitDoMarker(t *testing.T) {
	reply := `I should tap the settings icon. do(action="Tap", element=[500, 300])`
	res := splitWhole(reply)

	assert.Equal(t, "I should tap the settings icon.", res.Thinking)
	assert.Equal(t, `do(action="Tap", element=[500, 300])`, res.Action)
}

func TestSplitFinishMarker(t *testing.T) {
	reply := `The task is done. finish(message="Task completed")`
	res := splitWhole(reply)

	assert.Equal(t, "The task is done.", res.Thinking)
	assert.Equal(t, `finish(message="Task completed")`, res.Action)
}

func TestSplitFirstMarkerGoverns(t *testing.T) {
	reply := `thinking finish(message="do(action=nested)")`
	res := splitWhole(reply)

	assert.Equal(t, "thinking", res.Thinking)
	assert.True(t, strings.HasPrefix(res.Action, "finish(message="))
}

func TestSplitAnswerEnvelope(t *testing.T) {
	reply := `<think>considering the screen</think><answer>do(action="Back")</answer>`
	// No bare marker before <answer>, so the envelope fallback applies only
	// when markers are absent from the whole text; here do(action= appears
	// inside the envelope and governs directly.
	res := splitWhole(reply)
	assert.Equal(t, `do(action="Back")</answer>`, res.Action)

	enveloped := `<think>considering</think><answer>Press the back button</answer>`
	res = splitWhole(enveloped)
	assert.Equal(t, "considering", res.Thinking)
	assert.Equal(t, "Press the back button", res.Action)
}

func TestSplitNoMarkerAtAll(t *testing.T) {
	res := splitWhole("just some prose with no call")
	assert.Empty(t, res.Thinking)
	assert.Equal(t, "just some prose with no call", res.Action)
}

func TestSplitEmptyFragmentsAreNoOps(t *testing.T) {
	sp := NewSplitter(nil)
	sp.Feed("")
	sp.Feed("hello ")
	sp.Feed("")
	sp.Feed(`do(action="Back")`)
	res := sp.Finish()

	assert.Equal(t, "hello", res.Thinking)
	assert.Equal(t, `do(action="Back")`, res.Action)
}

func TestSplitIdempotence(t *testing.T) {
	replies := []string{
		`I should tap the settings icon. do(action="Tap", element=[500, 300])`,
		`done now finish(message="All good")`,
		`<answer>do(action="Home")</answer>`,
		`no markers here at all`,
		`思考中文内容。do(action="Tap", element=[1, 2])`,
	}
	for _, reply := range replies {
		whole := splitWhole(reply)
		perByte := splitPerByte(reply, nil)
		assert.Equal(t, whole, perByte, reply)
	}
}

func TestSplitMarkerStraddlingEveryBoundary(t *testing.T) {
	thinking := "thinking text"
	action := `do(action="Tap")`
	reply := thinking + action

	for cut := 0; cut <= len(reply); cut++ {
		sp := NewSplitter(nil)
		sp.Feed(reply[:cut])
		sp.Feed(reply[cut:])
		res := sp.Finish()

		assert.Equal(t, thinking, res.Thinking, "cut at %d", cut)
		assert.Equal(t, action, res.Action, "cut at %d", cut)
	}
}

func TestSplitObserverSeesOnlyThinking(t *testing.T) {
	var streamed strings.Builder
	reply := `let me think about this do(action="Tap", element=[1, 2])`
	res := splitPerByte(reply, func(s string) { streamed.WriteString(s) })

	assert.Equal(t, "let me think about this", strings.TrimSpace(streamed.String()))
	assert.NotContains(t, streamed.String(), "do(action=")
	assert.Equal(t, `do(action="Tap", element=[1, 2])`, res.Action)
}

func TestSplitObserverNeverSplitsRunes(t *testing.T) {
	var fragments []string
	reply := `打开微信并发送消息 do(action="Launch", app="wechat")`
	splitPerByte(reply, func(s string) { fragments = append(fragments, s) })

	for _, f := range fragments {
		assert.True(t, isValidUTF8(f), "fragment %q is not valid UTF-8", f)
	}
}

func isValidUTF8(s string) bool {
	return strings.ToValidUTF8(s, "�") == s
}

func TestSplitRawPreservesEverything(t *testing.T) {
	reply := `prefix do(action="Tap", element=[1, 2]) suffix`
	sp := NewSplitter(nil)
	for i := 0; i < len(reply); i += 3 {
		end := i + 3
		if end > len(reply) {
			end = len(reply)
		}
		sp.Feed(reply[i:end])
	}
	require.Equal(t, reply, sp.Raw())
}
