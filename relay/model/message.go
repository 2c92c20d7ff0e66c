package model

// Message is one conversation turn. Content is plain text; truncation mutates
// it in place on the oldest retained message only.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
