package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, English, ParseLanguage("en"))
	assert.Equal(t, English, ParseLanguage("English"))
	assert.Equal(t, Chinese, ParseLanguage("cn"))
	assert.Equal(t, Chinese, ParseLanguage("zh"))
	assert.Equal(t, Chinese, ParseLanguage(""))
}

func TestGet(t *testing.T) {
	assert.Equal(t, "Thinking", Get("thinking", English))
	assert.Equal(t, "思考过程", Get("thinking", Chinese))
	// Unknown keys fall back to the key itself.
	assert.Equal(t, "no_such_key", Get("no_such_key", English))
}

func TestMessageTablesAreParallel(t *testing.T) {
	en := Messages(English)
	zh := Messages(Chinese)
	assert.Equal(t, len(en), len(zh))
	for key := range en {
		assert.Contains(t, zh, key)
	}
}

func TestSystemPromptMentionsActionCalls(t *testing.T) {
	for _, lang := range []Language{English, Chinese} {
		prompt := SystemPrompt(lang)
		assert.Contains(t, prompt, `do(action="Tap", element=[x,y])`)
		assert.Contains(t, prompt, "finish(message=")
	}
}
