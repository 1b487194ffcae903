package dataset

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/domainset/dset/cache"
	"github.com/ZanzyTHEbar/domainset/dset/config"
	"github.com/ZanzyTHEbar/domainset/dset/pipeline"
	"github.com/ZanzyTHEbar/domainset/dset/tokenizer"

	"github.com/RoaringBitmap/roaring"
	"github.com/sourcegraph/conc/iter"
)

// Dataset is the uniform façade over a built example array: row count and
// per-index retrieval, identical across every pipeline variant so the
// consuming training loop stays variant-agnostic.
type Dataset struct {
	arr     *cache.Array
	variant pipeline.Variant

	segOnce  sync.Once
	segments map[int]*roaring.Bitmap
}

// New wraps a built or loaded example array.
func New(arr *cache.Array, variant pipeline.Variant) *Dataset {
	return &Dataset{arr: arr, variant: variant}
}

// Len returns the number of examples.
func (d *Dataset) Len() int { return d.arr.Rows() }

// Get returns one example row widened to int64.
func (d *Dataset) Get(i int) []int64 { return d.arr.RowInt64(i) }

// Width returns the constant example width.
func (d *Dataset) Width() int { return d.arr.Width() }

// Batch retrieves and widens several rows, in parallel for large batches.
func (d *Dataset) Batch(indices []int) [][]int64 {
	return iter.Map(indices, func(i *int) []int64 {
		return d.arr.RowInt64(*i)
	})
}

// SegmentRows returns the row indices whose leading domain-segment ID equals
// segID, or nil for segmentless variants. The index is built once on first
// use by scanning column zero.
func (d *Dataset) SegmentRows(segID int) *roaring.Bitmap {
	if d.variant.Segment == pipeline.SegmentNone {
		return nil
	}
	d.segOnce.Do(func() {
		d.segments = make(map[int]*roaring.Bitmap)
		for i := 0; i < d.arr.Rows(); i++ {
			seg := int(d.arr.Row(i)[0])
			bm, ok := d.segments[seg]
			if !ok {
				bm = roaring.New()
				d.segments[seg] = bm
			}
			bm.Add(uint32(i))
		}
	})
	if bm, ok := d.segments[segID]; ok {
		return bm
	}
	return roaring.New()
}

// LoadAndCacheExamples is the pipeline entry point: it resolves the variant,
// loads its cached example array if present, or builds and persists it.
func LoadAndCacheExamples(variantName string, cfg *config.PipelineConfig, tok tokenizer.Tokenizer) (*Dataset, error) {
	v, err := pipeline.Lookup(variantName)
	if err != nil {
		return nil, err
	}
	source := cfg.SourcePath()
	modelType := strings.Split(cfg.ModelType, "-")[0]

	var manifest *cache.Manifest
	if cfg.UseManifest {
		manifest, err = cache.OpenManifest(filepath.Dir(source))
		if err != nil {
			slog.Warn("Manifest unavailable, continuing without it", "error", err)
			manifest = nil
		} else {
			defer manifest.Close()
		}
	}

	var policy cache.KeyPolicy = cache.FilenameKeyPolicy{}
	if cfg.ChecksumKeys {
		policy = cache.ChecksumKeyPolicy{}
	}
	store := cache.NewStore(policy, manifest)

	req := cache.Request{
		Variant:    v.Name,
		Prefix:     v.Prefix(modelType),
		BlockSize:  cfg.BlockSize,
		SourcePath: source,
	}

	var build cache.BuildFunc
	if !v.CacheOnly {
		p := pipeline.New(v, cfg.BlockSize, tok)
		build = func() (*cache.Array, error) { return p.Run(source) }
	}

	arr, err := store.GetOrBuild(req, build)
	if err != nil {
		return nil, err
	}
	return New(arr, v), nil
}
