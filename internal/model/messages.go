package model

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Role tags a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn. ImageB64 carries a base64 PNG screenshot
// on user turns; it is stripped once the model has consumed it.
type Message struct {
	Role     Role
	Text     string
	ImageB64 string
}

// ScreenInfo is the structured screen metadata embedded in user turns.
type ScreenInfo struct {
	CurrentApp string `json:"current_app"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

// JSON renders the screen info as a compact JSON object.
func (si ScreenInfo) JSON() string {
	out, err := json.MarshalToString(si)
	if err != nil {
		return "{}"
	}
	return out
}
