package tokenizer

import (
	"fmt"
)

// Tokenizer converts raw text to token strings and integer IDs and frames a
// finished block with model-specific special tokens.
type Tokenizer interface {
	// Tokenize splits text into token strings.
	Tokenize(text string) ([]string, error)
	// ConvertTokensToIDs maps token strings to vocabulary IDs.
	ConvertTokensToIDs(tokens []string) []int
	// ConvertIDsToTokens maps vocabulary IDs back to token strings.
	ConvertIDsToTokens(ids []int) []string
	// BuildInputsWithSpecialTokens wraps a block of IDs with model framing;
	// the result may grow by a small fixed amount.
	BuildInputsWithSpecialTokens(ids []int) []int
}

// ErrUnsupported indicates the tokenizer could not be initialized
var ErrUnsupported = fmt.Errorf("unsupported tokenizer configuration")
