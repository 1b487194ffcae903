package tokenizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeVocab(t *testing.T, tokens ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.txt")
	data := ""
	for _, tok := range tokens {
		data += tok + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestWordPieceRoundTrip(t *testing.T) {
	path := writeVocab(t, "[UNK]", "[CLS]", "[SEP]", "hello", "world")
	wp, err := LoadWordPieceFromVocab(path)
	require.NoError(t, err)

	toks, err := wp.Tokenize("hello world hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world", "hello"}, toks)

	ids := wp.ConvertTokensToIDs(toks)
	assert.Equal(t, []int{3, 4, 3}, ids)

	back := wp.ConvertIDsToTokens(ids)
	assert.Equal(t, toks, back)
}

func TestWordPieceUnknownToken(t *testing.T) {
	path := writeVocab(t, "[UNK]", "[CLS]", "[SEP]", "hello")
	wp, err := LoadWordPieceFromVocab(path)
	require.NoError(t, err)

	ids := wp.ConvertTokensToIDs([]string{"mystery"})
	assert.Equal(t, []int{0}, ids)
	assert.Equal(t, []string{"[UNK]"}, wp.ConvertIDsToTokens([]int{0}))
}

func TestWordPieceSpecialTokenFraming(t *testing.T) {
	path := writeVocab(t, "[UNK]", "[CLS]", "[SEP]", "a", "b")
	wp, err := LoadWordPieceFromVocab(path)
	require.NoError(t, err)

	framed := wp.BuildInputsWithSpecialTokens([]int{3, 4})
	assert.Equal(t, []int{1, 3, 4, 2}, framed)
	// framing grows length by a fixed amount
	assert.Len(t, framed, 4)
}

func TestWordPieceMissingSpecialsFallBack(t *testing.T) {
	path := writeVocab(t, "just", "words")
	wp, err := LoadWordPieceFromVocab(path)
	require.NoError(t, err)

	// BERT's published defaults apply when the specials are absent
	framed := wp.BuildInputsWithSpecialTokens([]int{0})
	assert.Equal(t, []int{101, 0, 102}, framed)
}

func TestLoadWordPieceMissingFile(t *testing.T) {
	_, err := LoadWordPieceFromVocab(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
