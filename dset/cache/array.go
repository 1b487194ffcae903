package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/google/uuid"
)

// ErrCacheCorrupt means a persisted example array failed to deserialize or
// carries an inconsistent row width.
var ErrCacheCorrupt = errors.New("cached example array is corrupt")

// arrayMagic heads every persisted example array.
// Format (versioned, little-endian):
// [magic 'DSEX'] [u32 version] [u32 width] [u64 rows] [rows*width u16] [u32 crc]
const arrayMagic = "DSEX"

const arrayVersion = 1

const arrayHeaderLen = 4 + 4 + 4 + 8

// Array is a row-major 2-D example array. Elements are stored narrow
// (uint16) and widened to int64 on retrieval.
type Array struct {
	width int
	data  []uint16
}

// NewArray assembles an array from example rows, enforcing constant row
// width and the uint16 element range. An empty row set is valid and yields
// a zero-row array.
func NewArray(rows [][]int) (*Array, error) {
	if len(rows) == 0 {
		return &Array{}, nil
	}
	width := len(rows[0])
	a := &Array{width: width, data: make([]uint16, 0, len(rows)*width)}
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has width %d, want %d", i, len(row), width)
		}
		for j, v := range row {
			if v < 0 || v > 0xFFFF {
				return nil, fmt.Errorf("row %d element %d out of uint16 range: %d", i, j, v)
			}
			a.data = append(a.data, uint16(v))
		}
	}
	return a, nil
}

// Rows returns the number of example rows.
func (a *Array) Rows() int {
	if a.width == 0 {
		return 0
	}
	return len(a.data) / a.width
}

// Width returns the constant row width.
func (a *Array) Width() int { return a.width }

// Row returns one row without copying or widening.
func (a *Array) Row(i int) []uint16 {
	return a.data[i*a.width : (i+1)*a.width]
}

// RowInt64 returns one row widened to int64, as consumed downstream.
func (a *Array) RowInt64(i int) []int64 {
	row := a.Row(i)
	out := make([]int64, len(row))
	for j, v := range row {
		out[j] = int64(v)
	}
	return out
}

// Equal reports element-wise equality.
func (a *Array) Equal(b *Array) bool {
	if a.width != b.width || len(a.data) != len(b.data) {
		return false
	}
	for i := range a.data {
		if a.data[i] != b.data[i] {
			return false
		}
	}
	return true
}

// Save persists the array atomically: the file is written under a unique
// temp name first and renamed into place, so a concurrent builder racing on
// the same path degrades to last-writer-wins on a whole file rather than an
// interleaved one.
func (a *Array) Save(path string) error {
	buf := make([]byte, arrayHeaderLen+2*len(a.data)+4)
	copy(buf, arrayMagic)
	binary.LittleEndian.PutUint32(buf[4:], arrayVersion)
	binary.LittleEndian.PutUint32(buf[8:], uint32(a.width))
	binary.LittleEndian.PutUint64(buf[12:], uint64(a.Rows()))
	for i, v := range a.data {
		binary.LittleEndian.PutUint16(buf[arrayHeaderLen+2*i:], v)
	}
	payload := buf[arrayHeaderLen : arrayHeaderLen+2*len(a.data)]
	binary.LittleEndian.PutUint32(buf[arrayHeaderLen+2*len(a.data):], crc32.ChecksumIEEE(payload))

	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move cache file into place: %w", err)
	}
	return nil
}

// LoadArray reads an array persisted by Save, verifying magic, version,
// declared geometry and checksum.
func LoadArray(path string) (*Array, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file %s: %w", path, err)
	}
	if len(buf) < arrayHeaderLen+4 || string(buf[:4]) != arrayMagic {
		return nil, fmt.Errorf("%w: %s: bad header", ErrCacheCorrupt, path)
	}
	if v := binary.LittleEndian.Uint32(buf[4:]); v != arrayVersion {
		return nil, fmt.Errorf("%w: %s: unsupported version %d", ErrCacheCorrupt, path, v)
	}
	width := int(binary.LittleEndian.Uint32(buf[8:]))
	rows := int(binary.LittleEndian.Uint64(buf[12:]))
	if (width == 0) != (rows == 0) {
		return nil, fmt.Errorf("%w: %s: inconsistent geometry %dx%d", ErrCacheCorrupt, path, rows, width)
	}
	n := rows * width
	if len(buf) != arrayHeaderLen+2*n+4 {
		return nil, fmt.Errorf("%w: %s: truncated payload", ErrCacheCorrupt, path)
	}
	payload := buf[arrayHeaderLen : arrayHeaderLen+2*n]
	want := binary.LittleEndian.Uint32(buf[arrayHeaderLen+2*n:])
	if crc32.ChecksumIEEE(payload) != want {
		return nil, fmt.Errorf("%w: %s: checksum mismatch", ErrCacheCorrupt, path)
	}
	a := &Array{width: width, data: make([]uint16, n)}
	for i := range a.data {
		a.data[i] = binary.LittleEndian.Uint16(payload[2*i:])
	}
	return a, nil
}
