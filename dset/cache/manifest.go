package cache

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	internal "github.com/ZanzyTHEbar/domainset/dset"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"
)

// Manifest records every cache build in a small libsql database colocated
// with the corpus, so a cache file whose source has since changed can be
// detected. The default filename-only validity policy is unchanged: a
// manifest mismatch is surfaced as a warning, never an error.
type Manifest struct {
	db *sql.DB
}

// BuildRecord is one manifest row.
type BuildRecord struct {
	ID          string
	CachePath   string
	Variant     string
	BlockSize   int
	SourceFile  string
	SourceCRC32 uint32
	Rows        int
	Width       int
	CreatedAt   time.Time
}

// OpenManifest opens or initializes the manifest database in dir.
func OpenManifest(dir string) (*Manifest, error) {
	dbPath := filepath.Join(dir, internal.DefaultManifestDBName)
	db, err := sql.Open("libsql", "file:"+dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest database %s: %w", dbPath, err)
	}
	m := &Manifest{db: db}
	if err := m.init(); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

func (m *Manifest) init() error {
	_, err := m.db.Exec(`CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY UNIQUE,
		cache_path TEXT,
		variant TEXT,
		block_size INTEGER,
		source_file TEXT,
		source_crc32 INTEGER,
		rows INTEGER,
		width INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("failed to create builds table: %w", err)
	}
	return nil
}

// Record inserts one build row, replacing any previous row for the same
// cache path.
func (m *Manifest) Record(rec BuildRecord) error {
	if _, err := m.db.Exec(`DELETE FROM builds WHERE cache_path = ?`, rec.CachePath); err != nil {
		return fmt.Errorf("failed to clear previous build record: %w", err)
	}
	_, err := m.db.Exec(
		`INSERT INTO builds (id, cache_path, variant, block_size, source_file, source_crc32, rows, width)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), rec.CachePath, rec.Variant, rec.BlockSize,
		rec.SourceFile, int64(rec.SourceCRC32), rec.Rows, rec.Width,
	)
	if err != nil {
		return fmt.Errorf("failed to record build: %w", err)
	}
	return nil
}

// Lookup returns the build record for a cache path, if one exists.
func (m *Manifest) Lookup(cachePath string) (*BuildRecord, bool, error) {
	row := m.db.QueryRow(
		`SELECT id, cache_path, variant, block_size, source_file, source_crc32, rows, width
		 FROM builds WHERE cache_path = ?`, cachePath)
	var rec BuildRecord
	var crc int64
	err := row.Scan(&rec.ID, &rec.CachePath, &rec.Variant, &rec.BlockSize,
		&rec.SourceFile, &crc, &rec.Rows, &rec.Width)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query build record: %w", err)
	}
	rec.SourceCRC32 = uint32(crc)
	return &rec, true, nil
}

// Close releases the underlying database handle.
func (m *Manifest) Close() error {
	return m.db.Close()
}
