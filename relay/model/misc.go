package model

type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// Error is the OpenAI-style error envelope returned for requests the gateway
// rejects itself.
type Error struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    any    `json:"code,omitempty"`
	// RawError preserves the original error for diagnostics. Omitted from JSON
	// to avoid leaking backend internals.
	RawError error `json:"-"`
}
