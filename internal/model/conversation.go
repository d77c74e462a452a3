package model

import "encoding/json"

// Role of a conversation message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is an append-only message log.
// Append never mutates the receiver, so a value can be shared freely.
type Conversation struct {
	messages []Message
}

// NewConversation seeds a log with the system prompt and the opening assistant greeting
func NewConversation(systemPrompt, greeting string) Conversation {
	return Conversation{messages: []Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleAssistant, Content: greeting},
	}}
}

// Append returns a new log with one more message
func (c Conversation) Append(role Role, content string) Conversation {
	next := make([]Message, len(c.messages), len(c.messages)+1)
	copy(next, c.messages)
	return Conversation{messages: append(next, Message{Role: role, Content: content})}
}

// Messages returns a copy of every message, system prompt included
func (c Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Visible returns the messages shown to the user (everything but system turns)
func (c Conversation) Visible() []Message {
	out := make([]Message, 0, len(c.messages))
	for _, m := range c.messages {
		if m.Role == RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Len returns the number of messages
func (c Conversation) Len() int {
	return len(c.messages)
}

// Last returns the most recent message
func (c Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// MarshalJSON encodes the log as a JSON array of messages
func (c Conversation) MarshalJSON() ([]byte, error) {
	if c.messages == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.messages)
}

// UnmarshalJSON decodes a JSON array of messages
func (c *Conversation) UnmarshalJSON(data []byte) error {
	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return err
	}
	c.messages = messages
	return nil
}
