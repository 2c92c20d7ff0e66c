package model

import "encoding/json"

// FinishReason is the terminal state reported by the backend for one choice.
// Unknown values round-trip untouched.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonContentFilter FinishReason = "content_filter"
	FinishReasonFunctionCall  FinishReason = "function_call"
)

// Delta is the incremental text payload of a streaming chunk, split into a
// reasoning channel and a content channel. Chunks rewritten by the think-tag
// extractor populate at most one of the two.
type Delta struct {
	ReasoningContent *string `json:"reasoning_content,omitempty"`
	Content          *string `json:"content,omitempty"`
}

// Choice is a single completion alternative within a chunk. Logprobs is passed
// through unexamined.
type Choice struct {
	Index        int             `json:"index"`
	Delta        Delta           `json:"delta"`
	Logprobs     json.RawMessage `json:"logprobs,omitempty"`
	FinishReason *FinishReason   `json:"finish_reason,omitempty"`
	StopReason   *string         `json:"stop_reason,omitempty"`
}

// Chunk is one increment of a streaming completion response. Only Choices[0]
// is ever inspected by this gateway; a chunk with no choices is a protocol
// error, not a valid empty state.
type Chunk struct {
	Id      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Clone returns a deep enough copy of the chunk for independent delta rewrites:
// the choices slice is copied, opaque raw fields are shared.
func (c *Chunk) Clone() *Chunk {
	clone := *c
	clone.Choices = make([]Choice, len(c.Choices))
	copy(clone.Choices, c.Choices)
	return &clone
}
