// Package tokens estimates token counts for prompt budgeting. The
// discussion-context builder uses it to keep combined prompts inside the
// per-agent max_tokens hint.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

var (
	once sync.Once
	enc  *tiktoken.Tiktoken
)

// Estimate returns the token count of text. Falls back to a 4-chars-per-
// token heuristic when the encoding cannot be loaded (offline builds).
func Estimate(text string) int {
	once.Do(func() {
		e, err := tiktoken.GetEncoding(encodingName)
		if err == nil {
			enc = e
		}
	})

	if enc == nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
