package tokenizer

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
)

// SugarWordPiece wraps sugarme/tokenizer WordPiece (BERT-style)
type SugarWordPiece struct {
	t     *tk.Tokenizer
	clsID int
	sepID int
}

// NewSugarWordPiece loads vocab.txt and builds a BERT WordPiece tokenizer.
// Special-token framing is applied by BuildInputsWithSpecialTokens rather
// than a post-processor so Tokenize returns the bare token stream.
func NewSugarWordPiece(vocabPath string) (*SugarWordPiece, error) {
	path := vocabPath
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, "vocab.txt")
	}

	var wp wordpiece.WordPiece
	if nw, err := wordpiece.NewWordPieceFromFile(path, "[UNK]"); err == nil {
		wp = nw
	} else {
		builder := wordpiece.NewWordPieceBuilder().Files(path)
		wp = builder.Build()
	}

	t := tk.NewTokenizer(wp)

	// Basic normalizer and pre-tokenizer similar to BERT
	t.WithNormalizer(normalizer.NewBertNormalizer(true, true, true, true))
	t.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())

	clsID, sepID, err := discoverSpecialIDs(path)
	if err != nil {
		return nil, err
	}
	return &SugarWordPiece{t: t, clsID: clsID, sepID: sepID}, nil
}

// discoverSpecialIDs reads the vocab file line order to find [CLS]/[SEP],
// defaulting to BERT's published IDs when absent.
func discoverSpecialIDs(vocabPath string) (clsID, sepID int, err error) {
	clsID, sepID = 101, 102
	f, err := os.Open(vocabPath)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	idx := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "[CLS]":
			clsID = idx
		case "[SEP]":
			sepID = idx
		}
		idx++
	}
	return clsID, sepID, scanner.Err()
}

func (s *SugarWordPiece) Tokenize(text string) ([]string, error) {
	enc, err := s.t.Encode(tk.NewSingleEncodeInput(tk.NewInputSequence(text)), false)
	if err != nil {
		return nil, err
	}
	return enc.GetTokens(), nil
}

func (s *SugarWordPiece) ConvertTokensToIDs(tokens []string) []int {
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		if id, ok := s.t.TokenToId(tok); ok {
			ids[i] = id
		}
	}
	return ids
}

func (s *SugarWordPiece) ConvertIDsToTokens(ids []int) []string {
	tokens := make([]string, len(ids))
	for i, id := range ids {
		if tok, ok := s.t.IdToToken(id); ok {
			tokens[i] = tok
		} else {
			tokens[i] = "[UNK]"
		}
	}
	return tokens
}

func (s *SugarWordPiece) BuildInputsWithSpecialTokens(ids []int) []int {
	out := make([]int, 0, len(ids)+2)
	out = append(out, s.clsID)
	out = append(out, ids...)
	out = append(out, s.sepID)
	return out
}
