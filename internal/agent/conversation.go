package agent

import "github.com/phonepilot/phonepilot/internal/model"

// Conversation is the ordered message context owned by one running task.
// It is mutated only through Observe and CommitAssistant so the
// append-then-strip ordering cannot be applied out of order.
type Conversation struct {
	messages []model.Message
}

// NewConversation starts a context with the system prompt as its first turn.
func NewConversation(systemPrompt string) *Conversation {
	return &Conversation{
		messages: []model.Message{{Role: model.RoleSystem, Text: systemPrompt}},
	}
}

// Observe appends a user turn carrying the current observation text and
// screenshot.
func (c *Conversation) Observe(text, imageB64 string) {
	c.messages = append(c.messages, model.Message{
		Role:     model.RoleUser,
		Text:     text,
		ImageB64: imageB64,
	})
}

// CommitAssistant records the model's raw reply. In the same operation it
// strips the image payload from the most recent user turn: the model has
// consumed it, and dropping it bounds context growth across steps.
func (c *Conversation) CommitAssistant(raw string) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == model.RoleUser {
			c.messages[i].ImageB64 = ""
			break
		}
	}
	c.messages = append(c.messages, model.Message{Role: model.RoleAssistant, Text: raw})
}

// Messages returns the current context in order.
func (c *Conversation) Messages() []model.Message {
	return c.messages
}

// Len reports the number of turns.
func (c *Conversation) Len() int {
	return len(c.messages)
}
