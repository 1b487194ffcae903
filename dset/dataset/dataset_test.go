package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	internal "github.com/ZanzyTHEbar/domainset/dset"
	"github.com/ZanzyTHEbar/domainset/dset/cache"
	"github.com/ZanzyTHEbar/domainset/dset/config"
	"github.com/ZanzyTHEbar/domainset/dset/pipeline"
	"github.com/ZanzyTHEbar/domainset/dset/vocab"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenizer struct {
	tokenizeCalls int
}

func (f *fakeTokenizer) Tokenize(text string) ([]string, error) {
	f.tokenizeCalls++
	return strings.Fields(text), nil
}

func (f *fakeTokenizer) ConvertTokensToIDs(tokens []string) []int {
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		if strings.HasPrefix(tok, "w") {
			if n, err := strconv.Atoi(tok[1:]); err == nil {
				ids[i] = 10 + n
				continue
			}
		}
		ids[i] = 1
	}
	return ids
}

func (f *fakeTokenizer) ConvertIDsToTokens(ids []int) []string {
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = fmt.Sprintf("w%d", id-10)
	}
	return tokens
}

func (f *fakeTokenizer) BuildInputsWithSpecialTokens(ids []int) []int {
	out := make([]int, 0, len(ids)+2)
	out = append(out, 2)
	out = append(out, ids...)
	out = append(out, 3)
	return out
}

func mustArray(t *testing.T, rows [][]int) *cache.Array {
	t.Helper()
	arr, err := cache.NewArray(rows)
	require.NoError(t, err)
	return arr
}

func TestDatasetAccess(t *testing.T) {
	arr := mustArray(t, [][]int{{0, 2, 10, 3}, {1, 2, 11, 3}, {0, 2, 12, 3}})
	d := New(arr, pipeline.Variant{Segment: pipeline.SegmentTagEmbed})

	assert.Equal(t, 3, d.Len())
	assert.Equal(t, 4, d.Width())
	assert.Equal(t, []int64{1, 2, 11, 3}, d.Get(1))

	batch := d.Batch([]int{2, 0})
	require.Len(t, batch, 2)
	assert.Equal(t, []int64{0, 2, 12, 3}, batch[0])
	assert.Equal(t, []int64{0, 2, 10, 3}, batch[1])
}

func TestDatasetSegmentRows(t *testing.T) {
	arr := mustArray(t, [][]int{{0, 2, 10, 3}, {1, 2, 11, 3}, {0, 2, 12, 3}})
	d := New(arr, pipeline.Variant{Segment: pipeline.SegmentMergedDOI})

	zero := d.SegmentRows(0)
	require.NotNil(t, zero)
	assert.Equal(t, []uint32{0, 2}, zero.ToArray())

	one := d.SegmentRows(1)
	assert.Equal(t, []uint32{1}, one.ToArray())

	// unseen segment yields an empty bitmap, not nil
	empty := d.SegmentRows(42)
	require.NotNil(t, empty)
	assert.True(t, empty.IsEmpty())
}

func TestDatasetSegmentRowsCacheOnlyVariant(t *testing.T) {
	// cache-only variants wrap arrays built by doimerged, which carry a
	// leading segment column
	v, err := pipeline.Lookup("doimerged_laptop")
	require.NoError(t, err)

	arr := mustArray(t, [][]int{{0, 2, 10, 3}, {5, 2, 11, 3}})
	d := New(arr, v)

	rows := d.SegmentRows(0)
	require.NotNil(t, rows)
	assert.Equal(t, []uint32{0}, rows.ToArray())
}

func TestDatasetSegmentRowsSegmentless(t *testing.T) {
	arr := mustArray(t, [][]int{{2, 10, 3}})
	d := New(arr, pipeline.Variant{Segment: pipeline.SegmentNone})
	assert.Nil(t, d.SegmentRows(0))
}

func tokens(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", start+i)
	}
	return strings.Join(parts, " ")
}

func writeLaptopCorpus(t *testing.T) (dir, src string) {
	t.Helper()
	dir = t.TempDir()
	voc := vocab.Build(nil, []string{vocab.TokenDOI}, nil)
	require.NoError(t, voc.Save(filepath.Join(dir, vocab.DOIVocabFile)))

	src = filepath.Join(dir, "reviews.txt")
	content := "A1 " + internal.DOILaptops + "/Sub good\n" + tokens(0, 8) + "\n"
	require.NoError(t, os.WriteFile(src, []byte(content), 0o644))
	return dir, src
}

func TestLoadAndCacheExamples(t *testing.T) {
	_, src := writeLaptopCorpus(t)

	cfg := &config.PipelineConfig{
		ModelType:     "bert-base-uncased",
		TrainDataFile: src,
		BlockSize:     4,
	}

	tok := &fakeTokenizer{}
	ds, err := LoadAndCacheExamples("laptop", cfg, tok)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, []int64{0, 2, 10, 11, 12, 13, 3}, ds.Get(0))
	assert.Positive(t, tok.tokenizeCalls)

	// second call hits the cache: identical rows, zero tokenization
	tok2 := &fakeTokenizer{}
	ds2, err := LoadAndCacheExamples("laptop", cfg, tok2)
	require.NoError(t, err)
	assert.Zero(t, tok2.tokenizeCalls)
	require.Equal(t, ds.Len(), ds2.Len())
	for i := 0; i < ds.Len(); i++ {
		assert.Equal(t, ds.Get(i), ds2.Get(i))
	}
}

func TestLoadAndCacheExamplesEvaluate(t *testing.T) {
	_, src := writeLaptopCorpus(t)

	cfg := &config.PipelineConfig{
		ModelType:    "bert",
		EvalDataFile: src,
		BlockSize:    4,
		Evaluate:     true,
	}

	ds, err := LoadAndCacheExamples("laptop", cfg, &fakeTokenizer{})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
}

func TestLoadAndCacheExamplesUnknownVariant(t *testing.T) {
	cfg := &config.PipelineConfig{TrainDataFile: "x", BlockSize: 4}
	_, err := LoadAndCacheExamples("nonesuch", cfg, &fakeTokenizer{})
	assert.Error(t, err)
}

func TestLoadAndCacheExamplesCacheOnlyMiss(t *testing.T) {
	_, src := writeLaptopCorpus(t)
	cfg := &config.PipelineConfig{ModelType: "bert", TrainDataFile: src, BlockSize: 4}

	_, err := LoadAndCacheExamples("doimerged_laptop", cfg, &fakeTokenizer{})
	assert.ErrorIs(t, err, cache.ErrCacheRequired)
}
