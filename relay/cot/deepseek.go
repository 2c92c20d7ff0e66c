package cot

import (
	"iter"
	"strings"
	"unicode"

	"github.com/Laisky/errors/v2"

	"github.com/fuchsia74/openai-limiter/relay/model"
)

const (
	thinkBeginTag = "<think>"
	thinkEndTag   = "</think>"
)

var (
	// ErrEmptyChoice reports a chunk whose choices array is empty, which the
	// protocol never produces for a live stream.
	ErrEmptyChoice = errors.New("empty choice")
	// ErrMissingContent reports a chunk carrying neither reasoning_content nor
	// content while the stream is still unclassified.
	ErrMissingContent = errors.New("reasoning_content or content is empty")
)

// Parser state for one response. The stream is classified exactly once: either
// the very first content delta opens a <think> block, or it never will.
type deepseekState int

const (
	stateInit deepseekState = iota
	stateInThink
	stateClosed
	stateNoTag
)

// ExtractDeepseek incrementally splits <think></think>-delimited reasoning out
// of the content channel. The returned sequence preserves relative order and
// produces at most two chunks per input chunk (the reasoning tail plus the
// first content after the closing tag). Any upstream error, or a malformed
// chunk, terminates the output after a single error item.
//
// The whitespace following the opening tag is trimmed at most once per
// response. The remainder after the closing tag is trimmed only when both tags
// arrive in the same first chunk; this asymmetry is deliberate and pinned by
// tests.
func ExtractDeepseek(upstream iter.Seq2[*model.Chunk, error]) iter.Seq2[*model.Chunk, error] {
	return func(yield func(*model.Chunk, error) bool) {
		state := stateInit
		trimmedAfterOpen := false

		for chunk, err := range upstream {
			if err != nil {
				yield(nil, err)
				return
			}

			if len(chunk.Choices) == 0 {
				yield(nil, errors.WithStack(ErrEmptyChoice))
				return
			}

			delta := chunk.Choices[0].Delta

			// Heartbeat chunks carry empty strings in both channels; swallow them.
			if delta.ReasoningContent != nil && *delta.ReasoningContent == "" &&
				delta.Content != nil && *delta.Content == "" {
				continue
			}

			switch state {
			case stateInit:
				if delta.ReasoningContent != nil {
					// Backend already separates the channels; nothing to extract.
					state = stateClosed
					if !yield(chunk, nil) {
						return
					}
					continue
				}

				if delta.Content == nil {
					yield(nil, errors.WithStack(ErrMissingContent))
					return
				}

				rest, found := strings.CutPrefix(*delta.Content, thinkBeginTag)
				if !found {
					state = stateNoTag
					if !yield(chunk, nil) {
						return
					}
					continue
				}

				state = stateInThink
				if trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace); trimmed != rest {
					rest = trimmed
					trimmedAfterOpen = true
				}

				before, after, closed := strings.Cut(rest, thinkEndTag)
				if !closed {
					if !yield(withDelta(chunk, model.Delta{ReasoningContent: &rest}), nil) {
						return
					}
					continue
				}

				// Whole think block inside the opening chunk.
				state = stateClosed
				if !yield(withDelta(chunk, model.Delta{ReasoningContent: &before}), nil) {
					return
				}
				if after != "" {
					after = strings.TrimLeftFunc(after, unicode.IsSpace)
					if !yield(withDelta(chunk, model.Delta{Content: &after}), nil) {
						return
					}
				}

			case stateInThink:
				if delta.Content == nil {
					// The backend switched channels mid-block; pass through and let
					// the client interpret it.
					if !yield(chunk, nil) {
						return
					}
					continue
				}

				before, after, closed := strings.Cut(*delta.Content, thinkEndTag)
				if !closed {
					text := *delta.Content
					if !trimmedAfterOpen {
						text = strings.TrimLeftFunc(text, unicode.IsSpace)
						trimmedAfterOpen = true
					}
					if !yield(withDelta(chunk, model.Delta{ReasoningContent: &text}), nil) {
						return
					}
					continue
				}

				state = stateClosed
				if !yield(withDelta(chunk, model.Delta{ReasoningContent: &before}), nil) {
					return
				}
				if after != "" {
					if !yield(withDelta(chunk, model.Delta{Content: &after}), nil) {
						return
					}
				}

			case stateClosed, stateNoTag:
				if !yield(chunk, nil) {
					return
				}
			}
		}
	}
}

// withDelta returns a copy of chunk whose first choice carries the given
// delta. Copies are emitted instead of mutating the input so the two-output
// case cannot alias.
func withDelta(chunk *model.Chunk, delta model.Delta) *model.Chunk {
	clone := chunk.Clone()
	clone.Choices[0].Delta = delta
	return clone
}
