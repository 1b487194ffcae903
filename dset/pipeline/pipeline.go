package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/domainset/dset"
	"github.com/ZanzyTHEbar/domainset/dset/cache"
	"github.com/ZanzyTHEbar/domainset/dset/corpus"
	"github.com/ZanzyTHEbar/domainset/dset/tokenizer"
	"github.com/ZanzyTHEbar/domainset/dset/vocab"

	"github.com/ZanzyTHEbar/assert-lib"
	"gonum.org/v1/gonum/stat"
)

// ErrSourceNotFound means the input corpus path does not exist.
var ErrSourceNotFound = errors.New("source corpus file not found")

// Pipeline turns one corpus file into a fixed-width example array according
// to its variant. A pipeline run is single-threaded and runs to completion
// or fails; there is no partial output.
type Pipeline struct {
	variant       Variant
	blockSize     int
	tok           tokenizer.Tokenizer
	assertHandler *assert.AssertHandler
}

// New builds a pipeline for one variant and block size.
func New(variant Variant, blockSize int, tok tokenizer.Tokenizer) *Pipeline {
	return &Pipeline{
		variant:       variant,
		blockSize:     blockSize,
		tok:           tok,
		assertHandler: assert.NewAssertHandler(),
	}
}

// Run processes the source file and returns the assembled example array.
func (p *Pipeline) Run(sourcePath string) (*cache.Array, error) {
	fi, err := os.Stat(sourcePath)
	if err != nil || fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourcePath)
	}
	f, err := os.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open source %s: %w", sourcePath, err)
	}
	defer f.Close()

	slog.Info("Creating features from dataset file", "path", sourcePath, "variant", p.variant.Name)

	if !p.variant.Grouped {
		return p.runFlat(f)
	}
	return p.runGrouped(f, sourcePath)
}

// runFlat chunks text through one global buffer with no domain segment:
// the plain-lm path treats every non-blank line as text, the skip-tag path
// parses records but discards their tags. The buffer deliberately survives
// record boundaries.
func (p *Pipeline) runFlat(f *os.File) (*cache.Array, error) {
	ch := newChunker(p.tok, p.blockSize)

	if p.variant.Tagged {
		parser := corpus.NewParser(f)
		for {
			rec, err := parser.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, err
			}
			if len(ch.rows)%internal.DefaultProgressStep == 0 {
				slog.Info("Skip tag", "id", rec.ID, "domain", rec.Domain, "rating", rec.Rating)
			}
			for _, text := range rec.Body {
				if _, err := ch.feed(text, -1); err != nil {
					return nil, err
				}
			}
		}
	} else {
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			text := strings.TrimSpace(scanner.Text())
			if len(text) == 0 {
				continue
			}
			if _, err := ch.feed(text, -1); err != nil {
				return nil, err
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read source: %w", err)
		}
	}
	return cache.NewArray(ch.rows)
}

// runGrouped accumulates the corpus by (domain, rating, identifier), then
// chunks each group with a fresh buffer and a per-variant domain segment.
func (p *Pipeline) runGrouped(f *os.File, sourcePath string) (*cache.Array, error) {
	grouper := corpus.NewGrouper(p.variant.Filter, p.variant.DOIs, p.variant.Cap)
	if len(p.variant.DOIs) > 0 {
		slog.Info("Domain of Interests (DOIs)", "dois", p.variant.DOIs)
	}
	if err := grouper.Consume(corpus.NewParser(f)); err != nil {
		return nil, err
	}
	corp := grouper.Corpus()
	slog.Info("Total number of domains", "domains", corp.Len())

	voc, err := p.resolveVocab(corp, sourcePath)
	if err != nil {
		return nil, err
	}

	domains := p.variant.ChunkDomains
	if domains == nil {
		domains = corp.Domains()
	}

	ch := newChunker(p.tok, p.blockSize)
	var perGroup []float64

	for _, domain := range domains {
		slog.Info("Processing domain", "domain", domain)

		segID := -1
		if p.variant.Segment != SegmentNone {
			segID, err = p.segmentID(voc, domain)
			if err != nil {
				return nil, err
			}
		}

		for _, rating := range corp.Ratings(domain) {
			slog.Info("| rating", "rating", rating)
			// always use a new buffer for a new domain and rating
			ch.resetBuffer()

			groupRows := 0
			for _, id := range corp.Identifiers(domain, rating) {
				for _, text := range corp.Texts(domain, rating, id) {
					n, err := ch.feed(text, segID)
					if err != nil {
						return nil, err
					}
					groupRows += n
				}
				// clean up the memory
				corp.Clear(domain, rating, id)
			}
			perGroup = append(perGroup, float64(groupRows))
		}
	}

	if len(perGroup) > 0 {
		slog.Info("Block distribution per (domain, rating) group",
			"groups", len(perGroup),
			"mean", stat.Mean(perGroup, nil),
			"stddev", stat.StdDev(perGroup, nil))
	}
	return cache.NewArray(ch.rows)
}

// resolveVocab builds and persists the domain vocabulary on a training
// source, or loads the persisted one otherwise. Segmentless variants carry
// no vocabulary.
func (p *Pipeline) resolveVocab(corp *corpus.Corpus, sourcePath string) (*vocab.Vocabulary, error) {
	if p.variant.VocabFile == "" {
		return nil, nil
	}
	path := filepath.Join(filepath.Dir(sourcePath), p.variant.VocabFile)

	if p.variant.BuildOnTrain && strings.Contains(sourcePath, "train") {
		var skip map[string]struct{}
		if p.variant.SkipDOIsInVocab {
			skip = make(map[string]struct{}, len(p.variant.DOIs))
			for _, d := range p.variant.DOIs {
				skip[d] = struct{}{}
			}
		}
		voc := vocab.Build(corp.Domains(), p.variant.Reserved, skip)
		if err := voc.Save(path); err != nil {
			return nil, err
		}
		slog.Info("Persisted domain vocabulary", "path", path, "entries", voc.Len())
		return voc, nil
	}
	return vocab.Load(path)
}

// segmentID resolves the single leading segment ID for blocks of domain.
func (p *Pipeline) segmentID(voc *vocab.Vocabulary, domain string) (int, error) {
	switch p.variant.Segment {
	case SegmentMergedDOI:
		for _, d := range p.variant.DOIs {
			if domain == d {
				return voc.Resolve(vocab.TokenDOI, "")
			}
		}
		return voc.Resolve(domain, "")
	case SegmentPerDomain:
		return voc.Resolve(domain, "")
	case SegmentTagEmbed:
		return voc.Resolve(domain, p.variant.Fallback)
	default:
		return -1, nil
	}
}
