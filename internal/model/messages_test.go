package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScreenInfoJSON(t *testing.T) {
	info := ScreenInfo{CurrentApp: "wechat", Width: 1080, Height: 2400}
	assert.JSONEq(t, `{"current_app":"wechat","width":1080,"height":2400}`, info.JSON())
}

func TestToParams(t *testing.T) {
	msgs := []Message{
		{Role: RoleSystem, Text: "system prompt"},
		{Role: RoleUser, Text: "look at this", ImageB64: "aW1n"},
		{Role: RoleAssistant, Text: "raw reply"},
		{Role: RoleUser, Text: "image already stripped"},
	}

	params := toParams(msgs)
	require.Len(t, params, 4)

	assert.NotNil(t, params[0].OfSystem)
	assert.NotNil(t, params[2].OfAssistant)

	// A user turn with a screenshot becomes a multimodal content-part
	// message: image first, then text.
	withImage := params[1].OfUser
	require.NotNil(t, withImage)
	parts := withImage.Content.OfArrayOfContentParts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].OfImageURL)
	assert.Contains(t, parts[0].OfImageURL.ImageURL.URL, "data:image/png;base64,")
	require.NotNil(t, parts[1].OfText)
	assert.Equal(t, "look at this", parts[1].OfText.Text)

	// Without an image the plain string form is kept.
	plain := params[3].OfUser
	require.NotNil(t, plain)
	assert.Equal(t, "image already stripped", plain.Content.OfString.Value)
}
