package model

import (
	"encoding/json"

	"github.com/Laisky/errors/v2"
)

// CompletionRequest is the body of POST /v1/completions. Fields the gateway
// never inspects are kept verbatim in Extra and re-serialized when the request
// is forwarded, so clients can rely on backend-specific parameters surviving
// the proxy.
type CompletionRequest struct {
	Model       string
	Prompt      string
	MaxTokens   *int
	Temperature *float64
	Stream      *bool

	// Extra holds every field not listed above, raw.
	Extra map[string]json.RawMessage
}

// UnmarshalJSON splits known fields from passthrough fields.
func (r *CompletionRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decode completion request")
	}

	take := func(key string, dst any) error {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return errors.Wrapf(err, "decode field %q", key)
		}
		delete(raw, key)
		return nil
	}

	if err := take("model", &r.Model); err != nil {
		return err
	}
	if err := take("prompt", &r.Prompt); err != nil {
		return err
	}
	if err := take("max_tokens", &r.MaxTokens); err != nil {
		return err
	}
	if err := take("temperature", &r.Temperature); err != nil {
		return err
	}
	if err := take("stream", &r.Stream); err != nil {
		return err
	}

	r.Extra = raw
	return nil
}

// MarshalJSON reassembles the request, passthrough fields included.
func (r CompletionRequest) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.Extra)+5)
	for k, v := range r.Extra {
		out[k] = v
	}

	put := func(key string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return errors.Wrapf(err, "encode field %q", key)
		}
		out[key] = data
		return nil
	}

	if err := put("model", r.Model); err != nil {
		return nil, err
	}
	if err := put("prompt", r.Prompt); err != nil {
		return nil, err
	}
	if r.MaxTokens != nil {
		if err := put("max_tokens", r.MaxTokens); err != nil {
			return nil, err
		}
	}
	if r.Temperature != nil {
		if err := put("temperature", r.Temperature); err != nil {
			return nil, err
		}
	}
	if r.Stream != nil {
		if err := put("stream", r.Stream); err != nil {
			return nil, err
		}
	}

	return json.Marshal(out)
}

// IsStream reports whether the client asked for a streaming response.
func (r *CompletionRequest) IsStream() bool {
	return r.Stream != nil && *r.Stream
}

// ChatCompletionRequest is the body of POST /v1/chat/completions.
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Stream      *bool     `json:"stream,omitempty"`
}

// IsStream reports whether the client asked for a streaming response.
func (r *ChatCompletionRequest) IsStream() bool {
	return r.Stream != nil && *r.Stream
}
