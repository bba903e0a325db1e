package domain

import "context"

// Message is one turn of a chat-completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message roles understood by the completion endpoint.
const (
	RoleSystem    = "system"
	RoleDeveloper = "developer"
	RoleUser      = "user"
)

// Completer defines the interface (port) for chat-completion backends.
// It returns the raw text content of the model's first choice.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
