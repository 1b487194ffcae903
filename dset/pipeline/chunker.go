package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	internal "github.com/ZanzyTHEbar/domainset/dset"
	"github.com/ZanzyTHEbar/domainset/dset/tokenizer"
)

// tokenBuffer is a FIFO over token strings. Tokens enter at the tail and
// leave block-size at a time from the head; the backing slice is compacted
// once the dead head outgrows the live region.
type tokenBuffer struct {
	toks []string
	head int
}

func (b *tokenBuffer) extend(ts []string) {
	b.toks = append(b.toks, ts...)
}

func (b *tokenBuffer) size() int {
	return len(b.toks) - b.head
}

func (b *tokenBuffer) take(n int) []string {
	// copied out, not sliced: compaction below reuses the backing array
	out := make([]string, n)
	copy(out, b.toks[b.head:b.head+n])
	b.head += n
	if b.head > len(b.toks)/2 && b.head > 4096 {
		b.toks = append(b.toks[:0], b.toks[b.head:]...)
		b.head = 0
	}
	return out
}

func (b *tokenBuffer) reset() {
	b.toks = b.toks[:0]
	b.head = 0
}

// chunker feeds tokenized text through a tokenBuffer and emits fixed-size
// framed rows. One chunker instance serves a whole pipeline run; rows
// accumulate across buffer resets.
type chunker struct {
	tok       tokenizer.Tokenizer
	blockSize int
	buf       tokenBuffer
	rows      [][]int
	width     int
}

func newChunker(tok tokenizer.Tokenizer, blockSize int) *chunker {
	return &chunker{tok: tok, blockSize: blockSize}
}

// resetBuffer discards buffered tail tokens. Called at every new
// (domain, rating) group so no tokens leak across group boundaries.
func (c *chunker) resetBuffer() {
	c.buf.reset()
}

// feed tokenizes one text line and drains every full block. segID < 0 means
// no domain segment is prepended. Returns the number of rows emitted.
func (c *chunker) feed(text string, segID int) (int, error) {
	toks, err := c.tok.Tokenize(text)
	if err != nil {
		return 0, fmt.Errorf("tokenization failed: %w", err)
	}
	c.buf.extend(toks)

	emitted := 0
	for c.buf.size() >= c.blockSize {
		block := c.buf.take(c.blockSize)
		ids := c.tok.ConvertTokensToIDs(block)
		framed := c.tok.BuildInputsWithSpecialTokens(ids)

		var row []int
		if segID >= 0 {
			row = make([]int, 0, len(framed)+1)
			row = append(row, segID)
			row = append(row, framed...)
		} else {
			row = framed
		}

		if c.width == 0 {
			c.width = len(row)
		} else if len(row) != c.width {
			return emitted, fmt.Errorf("inconsistent example width: got %d, want %d", len(row), c.width)
		}

		c.rows = append(c.rows, row)
		emitted++
		if len(c.rows)%internal.DefaultProgressStep == 0 {
			slog.Info("Processed examples", "count", len(c.rows))
			slog.Info("one example is like",
				"example", strings.Join(c.tok.ConvertIDsToTokens(row), " "))
		}
	}
	return emitted, nil
}
