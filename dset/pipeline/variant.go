package pipeline

import (
	"fmt"

	internal "github.com/ZanzyTHEbar/domainset/dset"
	"github.com/ZanzyTHEbar/domainset/dset/corpus"
	"github.com/ZanzyTHEbar/domainset/dset/vocab"
)

// SegmentPolicy decides which single domain-segment ID, if any, is prepended
// to a block before model framing.
type SegmentPolicy int

const (
	// SegmentNone emits blocks without a domain segment.
	SegmentNone SegmentPolicy = iota
	// SegmentMergedDOI maps DOI domains to the merged [DOI] token and every
	// other domain to its own ID; unseen domains fail fast.
	SegmentMergedDOI
	// SegmentPerDomain maps each domain to its own ID with no fallback.
	SegmentPerDomain
	// SegmentTagEmbed maps each domain to its own ID, falling back to
	// [OTHER] for domains absent from the vocabulary.
	SegmentTagEmbed
)

// Variant is one configuration of the corpus-to-blocks pipeline,
// corresponding to a legacy dataset flavor. All behavior differences between
// flavors live here; the pipeline itself is shared.
type Variant struct {
	Name        string
	CachePrefix string
	// ModelPrefixed prepends "<model_type>_" to the cache prefix.
	ModelPrefixed bool

	// Tagged sources carry header+body records; untagged ones are chunked
	// line by line. Grouped variants accumulate by (domain, rating) before
	// chunking; ungrouped ones keep a single buffer across the whole file.
	Tagged  bool
	Grouped bool

	Filter corpus.FilterMode
	DOIs   []string
	// Cap limits distinct identifiers per (domain, rating); 0 = unlimited.
	Cap int

	Segment SegmentPolicy
	// Fallback is the reserved token resolving domains absent from the
	// vocabulary; empty means unseen domains are fatal.
	Fallback string

	// VocabFile is the JSON side file next to the source corpus; empty for
	// segmentless variants.
	VocabFile string
	// Reserved tokens receive the lowest IDs when the vocabulary is built.
	Reserved []string
	// BuildOnTrain (re)builds and persists the vocabulary when the source
	// path contains "train"; otherwise the persisted file is loaded.
	BuildOnTrain bool
	// SkipDOIsInVocab leaves DOI domains out of a built vocabulary; the
	// merged token stands in for them.
	SkipDOIsInVocab bool

	// ChunkDomains pins chunking to these domains in this order instead of
	// corpus iteration order.
	ChunkDomains []string

	// CacheOnly variants never build; a missing cache file is an error.
	CacheOnly bool
}

var variants = map[string]Variant{
	"lm": {
		Name:          "lm",
		CachePrefix:   "cached_lm_",
		ModelPrefixed: true,
	},
	"skiptag": {
		Name:        "skiptag",
		CachePrefix: "cached_skiptag_",
		Tagged:      true,
	},
	"doimerged": {
		Name:            "doimerged",
		CachePrefix:     "cached_doimerged_",
		Tagged:          true,
		Grouped:         true,
		Filter:          corpus.FilterExclude,
		DOIs:            []string{internal.DOILaptops, internal.DOIRestaurants},
		Segment:         SegmentMergedDOI,
		VocabFile:       vocab.DOIVocabFile,
		Reserved:        []string{vocab.TokenDOI},
		BuildOnTrain:    true,
		SkipDOIsInVocab: true,
	},
	"laptop": {
		Name:        "laptop",
		CachePrefix: "cached_laptop_",
		Tagged:      true,
		Grouped:     true,
		Filter:      corpus.FilterInclude,
		DOIs:        []string{internal.DOILaptops},
		Segment:     SegmentMergedDOI,
		VocabFile:   vocab.DOIVocabFile,
	},
	"restaurant": {
		Name:        "restaurant",
		CachePrefix: "cached_restaurant_",
		Tagged:      true,
		Grouped:     true,
		Filter:      corpus.FilterInclude,
		DOIs:        []string{internal.DOIRestaurants},
		Segment:     SegmentMergedDOI,
		VocabFile:   vocab.DOIVocabFile,
	},
	"lr": {
		Name:        "lr",
		CachePrefix: "cached_lr_",
		Tagged:      true,
		Grouped:     true,
		Filter:      corpus.FilterInclude,
		DOIs:        []string{internal.DOILaptops, internal.DOIRestaurants},
		Segment:     SegmentMergedDOI,
		VocabFile:   vocab.DOIVocabFile,
	},
	"diversetagemb": {
		Name:         "diversetagemb",
		CachePrefix:  "cached_diversetagemb_",
		Tagged:       true,
		Grouped:      true,
		Cap:          50,
		Segment:      SegmentTagEmbed,
		Fallback:     vocab.TokenOther,
		VocabFile:    vocab.DiverseVocabFile,
		Reserved:     []string{vocab.TokenGeneral, vocab.TokenOther},
		BuildOnTrain: true,
	},
	"lrtagemb": {
		Name:         "lrtagemb",
		CachePrefix:  "cached_lrtagemb_",
		Tagged:       true,
		Grouped:      true,
		Cap:          5000,
		Segment:      SegmentTagEmbed,
		Fallback:     vocab.TokenOther,
		VocabFile:    vocab.DiverseVocabFile,
		Reserved:     []string{vocab.TokenGeneral, vocab.TokenOther},
		BuildOnTrain: true,
		ChunkDomains: []string{internal.DOILaptops, internal.DOIRestaurants},
	},
	// The TS variants never build; their arrays come from doimerged runs and
	// carry that variant's leading segment column.
	"doimerged_laptop": {
		Name:        "doimerged_laptop",
		CachePrefix: "cached_doimerged_laptop_",
		Segment:     SegmentMergedDOI,
		CacheOnly:   true,
	},
	"doimerged_restaurant": {
		Name:        "doimerged_restaurant",
		CachePrefix: "cached_doimerged_restaurant_",
		Segment:     SegmentMergedDOI,
		CacheOnly:   true,
	},
}

// Lookup returns the named variant.
func Lookup(name string) (Variant, error) {
	v, ok := variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("unknown pipeline variant %q", name)
	}
	return v, nil
}

// Names lists the registered variant names.
func Names() []string {
	out := make([]string, 0, len(variants))
	for name := range variants {
		out = append(out, name)
	}
	return out
}

// Prefix returns the cache-file prefix for this variant under modelType.
func (v Variant) Prefix(modelType string) string {
	if v.ModelPrefixed {
		return modelType + "_" + v.CachePrefix
	}
	return v.CachePrefix
}
