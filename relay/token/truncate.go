package token

import (
	"context"

	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"

	"github.com/fuchsia74/openai-limiter/relay/model"
)

// TruncateText enforces budget on a single prompt. When the prompt encodes to
// more than budget tokens, the first budget tokens are dropped and the tail is
// decoded back to text.
//
// Note the asymmetry with TruncateMessages: this drops exactly budget tokens
// instead of trimming down to budget tokens remaining, so a prompt longer than
// twice the budget still exceeds it afterwards. Long-standing behavior, kept
// so truncation points stay stable across deployments; see the tests pinning
// it before changing anything here.
func TruncateText(ctx context.Context, text string, budget int) string {
	tokens := encoder().Encode(text, allowAllSpecial, nil)
	if len(tokens) <= budget {
		return text
	}

	gmw.GetLogger(ctx).Info("truncating single prompt",
		zap.Int("tokens_len", len(tokens)),
		zap.Int("max_token", budget))

	return decodeTokensAfter(tokens, budget)
}

// TruncateMessages enforces budget on a conversation, oldest message first.
// Whole messages are dropped from the front while doing so still leaves the
// total above budget; at most one message (the oldest retained) is then
// partially trimmed from its front so the total lands exactly on budget. The
// tail of that message and every later message are preserved verbatim,
// keeping recent context over older context.
//
// The returned slice aliases messages; the partially trimmed element is
// mutated in place.
func TruncateMessages(ctx context.Context, messages []model.Message, budget int) []model.Message {
	lg := gmw.GetLogger(ctx)

	enc := encoder()
	tokenLists := make([][]int, len(messages))
	sum := 0
	for i := range messages {
		tokenLists[i] = enc.Encode(messages[i].Content, allowAllSpecial, nil)
		sum += len(tokenLists[i])
	}
	if sum <= budget {
		return messages
	}

	for sum > budget {
		frontLen := len(tokenLists[0])

		if sum-frontLen > budget {
			if len(messages) > 1 {
				sum -= frontLen
				messages = messages[1:]
				tokenLists = tokenLists[1:]

				lg.Debug("dropping oldest message",
					zap.Int("dropped_tokens", frontLen),
					zap.Int("remaining_sum", sum))
				continue
			}

			// A single oversized message left: fall back to the single-prompt
			// contract with the original budget, caveat included.
			lg.Info("truncating conversation down to a single message",
				zap.Int("sum", sum),
				zap.Int("max_token", budget))
			messages[0].Content = TruncateText(ctx, messages[0].Content, budget)
			return messages
		}

		// Dropping the front entirely would overshoot; trim just the excess off
		// its front and stop. No later message is ever touched.
		excess := sum - budget
		lg.Info("partially truncating oldest retained message",
			zap.Int("sum", sum),
			zap.Int("max_token", budget),
			zap.Int("dropped_front_tokens", excess))

		messages[0].Content = decodeTokensAfter(tokenLists[0], excess)
		return messages
	}

	return messages
}
