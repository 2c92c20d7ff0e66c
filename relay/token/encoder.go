// Package token enforces input token budgets on prompts and conversations
// before they are forwarded to the backend.
package token

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// All truncation math uses the o200k_base encoding, the same one recent
// OpenAI-compatible backends tokenize with.
const encodingName = "o200k_base"

// allowAllSpecial mirrors encode-with-special-tokens: special token text in a
// prompt counts like any other text.
var allowAllSpecial = []string{"all"}

var (
	tokenEncoder *tiktoken.Tiktoken
	initOnce     sync.Once
)

// InitTokenEncoder loads the o200k_base encoder once at startup. The encoding
// tables are fetched on first use; set TIKTOKEN_CACHE_DIR to run offline.
func InitTokenEncoder() {
	initOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(encodingName)
		if err != nil {
			panic(fmt.Sprintf("failed to load %s token encoder: %s, "+
				"if you are running in an offline environment, set TIKTOKEN_CACHE_DIR to use existing files", encodingName, err.Error()))
		}
		tokenEncoder = enc
	})
}

func encoder() *tiktoken.Tiktoken {
	InitTokenEncoder()
	return tokenEncoder
}

// CountText returns the encoded token count of text.
func CountText(text string) int {
	return len(encoder().Encode(text, allowAllSpecial, nil))
}

// decodeTokensAfter drops the first `drop` tokens and decodes the remainder
// back to text. The cut is a token boundary, not necessarily a text-encoding
// boundary, so a partial rune at the front decodes to replacement characters
// rather than failing.
func decodeTokensAfter(tokens []int, drop int) string {
	return strings.ToValidUTF8(encoder().Decode(tokens[drop:]), "�")
}
