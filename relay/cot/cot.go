// Package cot extracts chain-of-thought reasoning from streaming completion
// responses whose backends embed it in the content channel instead of the
// dedicated reasoning_content field.
package cot

import (
	"iter"

	"github.com/Laisky/errors/v2"

	"github.com/fuchsia74/openai-limiter/relay/model"
)

// Extractor rewrites a stream of chunks, moving embedded reasoning text into
// the reasoning_content channel. Implementations are pull-driven and
// order-preserving: zero, one, or two output items per input item, no
// read-ahead, first error terminal.
type Extractor func(upstream iter.Seq2[*model.Chunk, error]) iter.Seq2[*model.Chunk, error]

// DialectDeepseek marks reasoning with literal <think></think> tags at the
// start of the content stream.
const DialectDeepseek = "deepseek"

// ForDialect returns the extractor for the named chain-of-thought dialect.
func ForDialect(name string) (Extractor, error) {
	switch name {
	case DialectDeepseek:
		return ExtractDeepseek, nil
	default:
		return nil, errors.Errorf("unknown cot dialect %q", name)
	}
}
