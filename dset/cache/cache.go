package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrCacheRequired means a cache-only variant was requested without a
// prebuilt cache file in place.
var ErrCacheRequired = errors.New("variant requires a prebuilt cache file")

// BuildFunc runs the full pipeline and assembles the example array.
type BuildFunc func() (*Array, error)

// Request identifies one cache entry.
type Request struct {
	Variant    string
	Prefix     string
	BlockSize  int
	SourcePath string
}

// Store resolves cache paths through a KeyPolicy and loads or builds
// example arrays. Concurrent builders targeting the same path are not
// synchronized; atomic writes keep the final file whole either way.
type Store struct {
	policy   KeyPolicy
	manifest *Manifest
}

// NewStore builds a store. manifest may be nil to skip build bookkeeping.
func NewStore(policy KeyPolicy, manifest *Manifest) *Store {
	if policy == nil {
		policy = FilenameKeyPolicy{}
	}
	return &Store{policy: policy, manifest: manifest}
}

// Path derives the cache file path for a request.
func (s *Store) Path(req Request) (string, error) {
	dir := filepath.Dir(req.SourcePath)
	filename := filepath.Base(req.SourcePath)
	return s.policy.Path(dir, req.Prefix, req.BlockSize, filename)
}

// GetOrBuild loads the cached array if present, else runs build and
// persists the result. A nil build marks a cache-only request: a miss is
// then ErrCacheRequired.
func (s *Store) GetOrBuild(req Request, build BuildFunc) (*Array, error) {
	path, err := s.Path(req)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		slog.Info("Loading features from cached file", "path", path)
		arr, err := LoadArray(path)
		if err != nil {
			return nil, err
		}
		s.checkStale(path, req)
		return arr, nil
	}

	if build == nil {
		return nil, fmt.Errorf("%w: %s", ErrCacheRequired, path)
	}

	arr, err := build()
	if err != nil {
		return nil, err
	}
	slog.Info("Saving features into cached file", "path", path, "rows", arr.Rows(), "width", arr.Width())
	if err := arr.Save(path); err != nil {
		return nil, err
	}
	s.recordBuild(path, req, arr)
	return arr, nil
}

// checkStale cross-checks a cache hit against the manifest. Mismatches are
// warnings only; filename-based validity stays authoritative.
func (s *Store) checkStale(path string, req Request) {
	if s.manifest == nil {
		return
	}
	rec, ok, err := s.manifest.Lookup(path)
	if err != nil || !ok {
		return
	}
	sum, err := FileCRC32(req.SourcePath)
	if err != nil {
		return
	}
	if sum != rec.SourceCRC32 {
		slog.Warn("Cached file may be stale: source checksum changed since build",
			"cache", path, "source", req.SourcePath)
	}
}

func (s *Store) recordBuild(path string, req Request, arr *Array) {
	if s.manifest == nil {
		return
	}
	sum, err := FileCRC32(req.SourcePath)
	if err != nil {
		slog.Warn("Failed to checksum source for manifest", "error", err)
		return
	}
	err = s.manifest.Record(BuildRecord{
		CachePath:   path,
		Variant:     req.Variant,
		BlockSize:   req.BlockSize,
		SourceFile:  filepath.Base(req.SourcePath),
		SourceCRC32: sum,
		Rows:        arr.Rows(),
		Width:       arr.Width(),
	})
	if err != nil {
		slog.Warn("Failed to record build in manifest", "error", err)
	}
}
