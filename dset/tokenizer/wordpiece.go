package tokenizer

import (
	"bufio"
	"os"
	"strings"
)

// Minimal whitespace WordPiece over a plain vocab file. For production use
// the sugarme-backed SugarWordPiece; this one keeps tests and local runs
// free of model assets.
type WordPiece struct {
	vocab   map[string]int
	reverse map[int]string
	unkID   int
	clsID   int
	sepID   int
}

// LoadWordPieceFromVocab reads a one-token-per-line vocab file.
func LoadWordPieceFromVocab(path string) (*WordPiece, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	vocab := make(map[string]int, 60000)
	reverse := make(map[int]string, 60000)
	idx := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tok := strings.TrimSpace(scanner.Text())
		if tok == "" {
			continue
		}
		vocab[tok] = idx
		reverse[idx] = tok
		idx++
	}
	wp := &WordPiece{vocab: vocab, reverse: reverse}
	// Defaults match BERT's published IDs when the specials are absent
	wp.unkID = lookupOr(vocab, "[UNK]", 100)
	wp.clsID = lookupOr(vocab, "[CLS]", 101)
	wp.sepID = lookupOr(vocab, "[SEP]", 102)
	return wp, scanner.Err()
}

func lookupOr(vocab map[string]int, tok string, def int) int {
	if id, ok := vocab[tok]; ok {
		return id
	}
	return def
}

func (w *WordPiece) Tokenize(text string) ([]string, error) {
	return strings.Fields(text), nil
}

func (w *WordPiece) ConvertTokensToIDs(tokens []string) []int {
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		id, ok := w.vocab[tok]
		if !ok {
			id = w.unkID
		}
		ids[i] = id
	}
	return ids
}

func (w *WordPiece) ConvertIDsToTokens(ids []int) []string {
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tok, ok := w.reverse[id]
		if !ok {
			tok = "[UNK]"
		}
		tokens[i] = tok
	}
	return tokens
}

func (w *WordPiece) BuildInputsWithSpecialTokens(ids []int) []int {
	out := make([]int, 0, len(ids)+2)
	out = append(out, w.clsID)
	out = append(out, ids...)
	out = append(out, w.sepID)
	return out
}
