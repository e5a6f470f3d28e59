package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phonepilot/phonepilot/internal/actions"
	"github.com/phonepilot/phonepilot/internal/device"
	"github.com/phonepilot/phonepilot/internal/model"
)

// fakeBackend serves canned screen state; the agent only observes through
// it, all acting goes through the dispatcher.
type fakeBackend struct {
	device.Backend

	shot       device.Screenshot
	app        string
	captureErr error
	captureCnt int
	currentCnt int
}

func (f *fakeBackend) CaptureScreen(ctx context.Context) (device.Screenshot, error) {
	f.captureCnt++
	return f.shot, f.captureErr
}

func (f *fakeBackend) CurrentApp(ctx context.Context) (string, error) {
	f.currentCnt++
	return f.app, nil
}

// fakeModel replays scripted replies and records every context it saw.
type fakeModel struct {
	replies []*model.StreamResult
	err     error
	calls   int
	seen    [][]model.Message
}

func (f *fakeModel) StreamCompletion(ctx context.Context, messages []model.Message, observer func(string)) (*model.StreamResult, error) {
	f.calls++
	copied := make([]model.Message, len(messages))
	copy(copied, messages)
	f.seen = append(f.seen, copied)
	if f.err != nil {
		return nil, f.err
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

// fakeDispatcher records dispatched records and replays canned outcomes.
type fakeDispatcher struct {
	outcome  actions.Outcome
	received []*actions.Record
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, rec *actions.Record, width, height int) actions.Outcome {
	f.received = append(f.received, rec)
	if rec.Kind == actions.KindFinish {
		return actions.Outcome{Succeeded: true, ShouldFinish: true, Message: rec.Message()}
	}
	return f.outcome
}

func reply(thinking, action string) *model.StreamResult {
	return &model.StreamResult{
		Thinking: thinking,
		Action:   action,
		Raw:      thinking + " " + action,
	}
}

func newTestAgent(maxSteps int, backend *fakeBackend, client ModelClient, dispatcher ActionDispatcher) *Agent {
	return New(Config{MaxSteps: maxSteps, SystemPrompt: "you are a phone agent"},
		backend, client, dispatcher, nil, zap.NewNop())
}

func testBackend() *fakeBackend {
	return &fakeBackend{
		shot: device.Screenshot{Base64: "aW1n", Width: 1080, Height: 2400},
		app:  "settings",
	}
}

func TestRunFinishes(t *testing.T) {
	client := &fakeModel{replies: []*model.StreamResult{
		reply("done here", `finish(message="Opened the settings page")`),
	}}
	dispatcher := &fakeDispatcher{}
	a := newTestAgent(10, testBackend(), client, dispatcher)

	msg, err := a.Run(context.Background(), "open settings")
	require.NoError(t, err)
	assert.Equal(t, "Opened the settings page", msg)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, 1, a.StepCount())
}

func TestRunDefaultFinishMessage(t *testing.T) {
	client := &fakeModel{replies: []*model.StreamResult{
		reply("done", `finish(message="")`),
	}}
	a := newTestAgent(10, testBackend(), client, &fakeDispatcher{})

	msg, err := a.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, "Task completed", msg)
}

func TestRunExhaustsStepBudget(t *testing.T) {
	client := &fakeModel{replies: []*model.StreamResult{
		reply("tapping", `do(action="Tap", element=[500, 300])`),
	}}
	dispatcher := &fakeDispatcher{outcome: actions.Outcome{Succeeded: true}}
	a := newTestAgent(3, testBackend(), client, dispatcher)

	msg, err := a.Run(context.Background(), "endless task")
	require.NoError(t, err)
	assert.Equal(t, ExhaustedMessage, msg)
	// Exactly max_steps model calls, never a (max+1)-th.
	assert.Equal(t, 3, client.calls)
	assert.Equal(t, 3, a.StepCount())
}

func TestRunModelFailureIsTerminal(t *testing.T) {
	client := &fakeModel{err: errors.New("connection refused")}
	a := newTestAgent(10, testBackend(), client, &fakeDispatcher{})

	msg, err := a.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Contains(t, msg, "Model error")
	assert.Contains(t, msg, "connection refused")
	assert.Equal(t, 1, client.calls)
}

func TestRunScreenCaptureFailureAborts(t *testing.T) {
	backend := testBackend()
	backend.captureErr = &device.OpError{Op: "screenshot", Err: errors.New("device gone")}
	client := &fakeModel{replies: []*model.StreamResult{reply("x", `do(action="Back")`)}}
	a := newTestAgent(10, backend, client, &fakeDispatcher{})

	_, err := a.Run(context.Background(), "task")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "screen state")
	assert.Zero(t, client.calls)
}

func TestStepParseFailureSynthesizesFinish(t *testing.T) {
	client := &fakeModel{replies: []*model.StreamResult{
		reply("confused", "I am not sure what to do next"),
	}}
	dispatcher := &fakeDispatcher{}
	a := newTestAgent(10, testBackend(), client, dispatcher)

	result, err := a.Step(context.Background(), "task")
	require.NoError(t, err)
	assert.True(t, result.Finished)
	require.Len(t, dispatcher.received, 1)
	assert.Equal(t, actions.KindFinish, dispatcher.received[0].Kind)
	assert.Equal(t, "I am not sure what to do next", dispatcher.received[0].Message())
}

func TestStepConfirmationDeclineFinishes(t *testing.T) {
	client := &fakeModel{replies: []*model.StreamResult{
		reply("sensitive", `do(action="Tap", element=[500, 300], message="Confirm payment")`),
	}}
	dispatcher := &fakeDispatcher{outcome: actions.Outcome{
		ShouldFinish:         true,
		Message:              "User cancelled sensitive operation",
		RequiresConfirmation: true,
	}}
	a := newTestAgent(10, testBackend(), client, dispatcher)

	msg, err := a.Run(context.Background(), "pay the bill")
	require.NoError(t, err)
	assert.Equal(t, "User cancelled sensitive operation", msg)
	assert.Equal(t, 1, client.calls)
}

func TestStepConversationShape(t *testing.T) {
	client := &fakeModel{replies: []*model.StreamResult{
		reply("step one", `do(action="Tap", element=[1, 2])`),
		reply("step two", `do(action="Back")`),
		reply("done", `finish(message="ok")`),
	}}
	dispatcher := &fakeDispatcher{outcome: actions.Outcome{Succeeded: true}}
	a := newTestAgent(10, testBackend(), client, dispatcher)

	_, err := a.Run(context.Background(), "multi step task")
	require.NoError(t, err)
	require.Equal(t, 3, client.calls)

	// First call: system + user(task, with image).
	first := client.seen[0]
	require.Len(t, first, 2)
	assert.Equal(t, model.RoleSystem, first[0].Role)
	assert.Equal(t, model.RoleUser, first[1].Role)
	assert.Contains(t, first[1].Text, "multi step task")
	assert.NotEmpty(t, first[1].ImageB64)

	// Third call: earlier user turns have been stripped of their images,
	// only the newest observation still carries one.
	third := client.seen[2]
	require.Len(t, third, 6)
	var withImage int
	for _, m := range third {
		if m.ImageB64 != "" {
			withImage++
			assert.Equal(t, model.RoleUser, m.Role)
		}
	}
	assert.Equal(t, 1, withImage)
	assert.Equal(t, model.RoleAssistant, third[2].Role)
	assert.Contains(t, third[2].Text, "step one")
}

func TestStepObserverNotified(t *testing.T) {
	client := &fakeModel{replies: []*model.StreamResult{
		reply("done", `finish(message="ok")`),
	}}
	var steps []int
	cfg := Config{
		MaxSteps:     5,
		SystemPrompt: "prompt",
		StepObserver: func(step int, result *StepResult) { steps = append(steps, step) },
	}
	a := New(cfg, testBackend(), client, &fakeDispatcher{}, nil, zap.NewNop())

	_, err := a.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, steps)
}

func TestResetClearsState(t *testing.T) {
	client := &fakeModel{replies: []*model.StreamResult{
		reply("done", `finish(message="ok")`),
	}}
	a := newTestAgent(10, testBackend(), client, &fakeDispatcher{})

	_, err := a.Run(context.Background(), "first task")
	require.NoError(t, err)
	require.Equal(t, 1, a.StepCount())

	a.Reset()
	assert.Zero(t, a.StepCount())
	assert.Nil(t, a.conversation)
}

func TestConversationCommitAssistant(t *testing.T) {
	c := NewConversation("system prompt")
	c.Observe("first look", "img-1")
	c.CommitAssistant("raw reply one")
	c.Observe("second look", "img-2")

	msgs := c.Messages()
	require.Len(t, msgs, 4)
	assert.Empty(t, msgs[1].ImageB64, "consumed image must be stripped")
	assert.Equal(t, "img-2", msgs[3].ImageB64)
	assert.Equal(t, model.RoleAssistant, msgs[2].Role)
}
