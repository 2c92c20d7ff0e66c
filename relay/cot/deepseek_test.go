package cot

import (
	"iter"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"

	"github.com/fuchsia74/openai-limiter/relay/model"
)

func contentChunk(s string) *model.Chunk {
	return &model.Chunk{
		Id:      "chatcmpl-test",
		Object:  "chat.completion.chunk",
		Created: 1700000000,
		Model:   "deepseek-r1",
		Choices: []model.Choice{{Delta: model.Delta{Content: &s}}},
	}
}

func reasoningChunk(s string) *model.Chunk {
	return &model.Chunk{
		Id:      "chatcmpl-test",
		Choices: []model.Choice{{Delta: model.Delta{ReasoningContent: &s}}},
	}
}

type item struct {
	chunk *model.Chunk
	err   error
}

func upstreamOf(items ...item) iter.Seq2[*model.Chunk, error] {
	return func(yield func(*model.Chunk, error) bool) {
		for _, it := range items {
			if !yield(it.chunk, it.err) {
				return
			}
		}
	}
}

func collect(t *testing.T, seq iter.Seq2[*model.Chunk, error]) ([]*model.Chunk, []error) {
	t.Helper()
	var chunks []*model.Chunk
	var errs []error
	for chunk, err := range seq {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks, errs
}

func requireDelta(t *testing.T, chunk *model.Chunk, reasoning, content *string) {
	t.Helper()
	require.Len(t, chunk.Choices, 1)
	delta := chunk.Choices[0].Delta
	if reasoning == nil {
		require.Nil(t, delta.ReasoningContent)
	} else {
		require.NotNil(t, delta.ReasoningContent)
		require.Equal(t, *reasoning, *delta.ReasoningContent)
	}
	if content == nil {
		require.Nil(t, delta.Content)
	} else {
		require.NotNil(t, delta.Content)
		require.Equal(t, *content, *delta.Content)
	}
}

func str(s string) *string { return &s }

func TestExtractDeepseek_NoTagPassthrough(t *testing.T) {
	in := []item{
		{chunk: contentChunk("hello")},
		{chunk: contentChunk(" world")},
		{chunk: contentChunk("<think>late tags are ignored</think>")},
	}

	chunks, errs := collect(t, ExtractDeepseek(upstreamOf(in...)))
	require.Empty(t, errs)
	require.Len(t, chunks, len(in))
	for i, chunk := range chunks {
		require.Same(t, in[i].chunk, chunk, "pass-through must not copy")
	}
}

func TestExtractDeepseek_NativeReasoningPassthrough(t *testing.T) {
	in := []item{
		{chunk: reasoningChunk("thinking...")},
		{chunk: contentChunk("answer")},
		{chunk: contentChunk("<think>not reinterpreted</think>")},
	}

	chunks, errs := collect(t, ExtractDeepseek(upstreamOf(in...)))
	require.Empty(t, errs)
	require.Len(t, chunks, 3)
	requireDelta(t, chunks[0], str("thinking..."), nil)
	requireDelta(t, chunks[1], nil, str("answer"))
	requireDelta(t, chunks[2], nil, str("<think>not reinterpreted</think>"))
}

func TestExtractDeepseek_ShortBlockSingleChunk(t *testing.T) {
	chunks, errs := collect(t, ExtractDeepseek(upstreamOf(
		item{chunk: contentChunk("<think>\n short thought</think>  final answer")},
	)))
	require.Empty(t, errs)
	require.Len(t, chunks, 2)
	requireDelta(t, chunks[0], str("short thought"), nil)
	requireDelta(t, chunks[1], nil, str("final answer"))
}

func TestExtractDeepseek_ClosingTagAtChunkEnd(t *testing.T) {
	chunks, errs := collect(t, ExtractDeepseek(upstreamOf(
		item{chunk: contentChunk("<think>only reasoning</think>")},
	)))
	require.Empty(t, errs)
	require.Len(t, chunks, 1, "empty remainder must not produce a content chunk")
	requireDelta(t, chunks[0], str("only reasoning"), nil)
}

func TestExtractDeepseek_FragmentedStream(t *testing.T) {
	chunks, errs := collect(t, ExtractDeepseek(upstreamOf(
		item{chunk: contentChunk("<think>\n")},
		item{chunk: contentChunk("reasoning text")},
		item{chunk: contentChunk("</think>final answer")},
	)))
	require.Empty(t, errs)
	require.Len(t, chunks, 4)
	requireDelta(t, chunks[0], str(""), nil)
	requireDelta(t, chunks[1], str("reasoning text"), nil)
	requireDelta(t, chunks[2], str(""), nil)
	requireDelta(t, chunks[3], nil, str("final answer"))
}

func TestExtractDeepseek_ReasoningOnlyUntilClosed(t *testing.T) {
	chunks, errs := collect(t, ExtractDeepseek(upstreamOf(
		item{chunk: contentChunk("<think>step one")},
		item{chunk: contentChunk(" step two")},
		item{chunk: contentChunk(" step three")},
		item{chunk: contentChunk("</think>done")},
	)))
	require.Empty(t, errs)
	require.Len(t, chunks, 5)
	for _, chunk := range chunks[:4] {
		require.Nil(t, chunk.Choices[0].Delta.Content,
			"content must stay absent while inside the think block")
		require.NotNil(t, chunk.Choices[0].Delta.ReasoningContent)
	}
	requireDelta(t, chunks[4], nil, str("done"))
}

// The whitespace right after the opening tag is trimmed at most once per
// response: if the opening chunk had nothing to trim, the first subsequent
// reasoning chunk is trimmed instead, and later ones are left alone.
func TestExtractDeepseek_TrimHappensOnce(t *testing.T) {
	chunks, errs := collect(t, ExtractDeepseek(upstreamOf(
		item{chunk: contentChunk("<think>x")},
		item{chunk: contentChunk("  second")},
		item{chunk: contentChunk("  third")},
	)))
	require.Empty(t, errs)
	require.Len(t, chunks, 3)
	requireDelta(t, chunks[0], str("x"), nil)
	requireDelta(t, chunks[1], str("second"), nil)
	requireDelta(t, chunks[2], str("  third"), nil)
}

// The remainder after the closing tag is trimmed only when the whole block sat
// in the opening chunk, not when the closing tag arrives later. Deliberate
// asymmetry, do not "fix".
func TestExtractDeepseek_NoTrimAfterLateClosingTag(t *testing.T) {
	chunks, errs := collect(t, ExtractDeepseek(upstreamOf(
		item{chunk: contentChunk("<think>a")},
		item{chunk: contentChunk("</think>  rest")},
	)))
	require.Empty(t, errs)
	require.Len(t, chunks, 3)
	requireDelta(t, chunks[0], str("a"), nil)
	requireDelta(t, chunks[1], str(""), nil)
	requireDelta(t, chunks[2], nil, str("  rest"))
}

func TestExtractDeepseek_HeartbeatSuppression(t *testing.T) {
	empty := ""
	heartbeat := &model.Chunk{Choices: []model.Choice{{
		Delta: model.Delta{ReasoningContent: &empty, Content: &empty},
	}}}

	chunks, errs := collect(t, ExtractDeepseek(upstreamOf(
		item{chunk: heartbeat},
		item{chunk: contentChunk("hello")},
		item{chunk: heartbeat},
		item{chunk: contentChunk(" world")},
	)))
	require.Empty(t, errs)
	require.Len(t, chunks, 2)
	requireDelta(t, chunks[0], nil, str("hello"))
	requireDelta(t, chunks[1], nil, str(" world"))
}

func TestExtractDeepseek_ContentAbsentInsideThinkPassthrough(t *testing.T) {
	finish := model.FinishReasonStop
	bare := &model.Chunk{Choices: []model.Choice{{FinishReason: &finish}}}

	chunks, errs := collect(t, ExtractDeepseek(upstreamOf(
		item{chunk: contentChunk("<think>a")},
		item{chunk: bare},
		item{chunk: contentChunk("b")},
	)))
	require.Empty(t, errs)
	require.Len(t, chunks, 3)
	requireDelta(t, chunks[0], str("a"), nil)
	require.Same(t, bare, chunks[1], "content-free chunks pass through untouched")
	requireDelta(t, chunks[2], str("b"), nil)
}

func TestExtractDeepseek_EmptyChoiceTerminates(t *testing.T) {
	chunks, errs := collect(t, ExtractDeepseek(upstreamOf(
		item{chunk: contentChunk("hello")},
		item{chunk: &model.Chunk{}},
		item{chunk: contentChunk("never seen")},
	)))
	require.Len(t, chunks, 1)
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], ErrEmptyChoice)
}

func TestExtractDeepseek_MissingContentTerminates(t *testing.T) {
	finish := model.FinishReasonStop
	chunks, errs := collect(t, ExtractDeepseek(upstreamOf(
		item{chunk: &model.Chunk{Choices: []model.Choice{{FinishReason: &finish}}}},
	)))
	require.Empty(t, chunks)
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], ErrMissingContent)
}

func TestExtractDeepseek_UpstreamErrorTerminates(t *testing.T) {
	boom := errors.New("connection reset")
	chunks, errs := collect(t, ExtractDeepseek(upstreamOf(
		item{chunk: contentChunk("ok")},
		item{err: boom},
		item{chunk: contentChunk("never seen")},
	)))
	require.Len(t, chunks, 1)
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], boom)
}

func TestExtractDeepseek_TwoOutputChunksDoNotAlias(t *testing.T) {
	finish := model.FinishReasonLength
	src := contentChunk("<think>why</think>because")
	src.Choices[0].FinishReason = &finish

	chunks, errs := collect(t, ExtractDeepseek(upstreamOf(item{chunk: src})))
	require.Empty(t, errs)
	require.Len(t, chunks, 2)
	require.NotSame(t, chunks[0], chunks[1])

	// Both emissions keep the choice metadata.
	require.Equal(t, model.FinishReasonLength, *chunks[0].Choices[0].FinishReason)
	require.Equal(t, model.FinishReasonLength, *chunks[1].Choices[0].FinishReason)

	// And rewriting one must not leak into the other.
	chunks[0].Choices[0].Delta = model.Delta{}
	requireDelta(t, chunks[1], nil, str("because"))
}

func TestExtractDeepseek_ConsumerStopReleasesUpstream(t *testing.T) {
	pulled := 0
	upstream := func(yield func(*model.Chunk, error) bool) {
		for {
			pulled++
			if !yield(contentChunk("data"), nil) {
				return
			}
		}
	}

	for range ExtractDeepseek(upstream) {
		break
	}
	require.Equal(t, 1, pulled, "no read-ahead past the consumer")
}

func TestForDialect(t *testing.T) {
	extract, err := ForDialect(DialectDeepseek)
	require.NoError(t, err)
	require.NotNil(t, extract)

	_, err = ForDialect("o1")
	require.Error(t, err)
}
