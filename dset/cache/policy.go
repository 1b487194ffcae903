package cache

import (
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
)

// FileExt is the on-disk extension of persisted example arrays.
const FileExt = ".dsx"

// KeyPolicy derives the cache file path for one (variant, block size,
// source) combination. The policy decides what counts as cache validity:
// the default matches on name alone, so an edited source silently reuses a
// stale cache unless the caller renames it.
type KeyPolicy interface {
	Path(dir, prefix string, blockSize int, sourceFilename string) (string, error)
}

// FilenameKeyPolicy keys caches on variant prefix, block size and source
// filename only. Presence of the file is treated as proof of validity.
type FilenameKeyPolicy struct{}

func (FilenameKeyPolicy) Path(dir, prefix string, blockSize int, sourceFilename string) (string, error) {
	return filepath.Join(dir, fmt.Sprintf("%s%d_%s%s", prefix, blockSize, sourceFilename, FileExt)), nil
}

// ChecksumKeyPolicy additionally keys on a CRC32 of the source contents, so
// an edited source file misses the old cache instead of reusing it.
type ChecksumKeyPolicy struct{}

func (ChecksumKeyPolicy) Path(dir, prefix string, blockSize int, sourceFilename string) (string, error) {
	sum, err := FileCRC32(filepath.Join(dir, sourceFilename))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("%s%d_%08x_%s%s", prefix, blockSize, sum, sourceFilename, FileExt)), nil
}

// FileCRC32 returns the IEEE CRC32 of a file's contents.
func FileCRC32(path string) (uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to checksum %s: %w", path, err)
	}
	return crc32.ChecksumIEEE(data), nil
}
