package vocab

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// Reserved tokens occupying the lowest IDs of a vocabulary, per variant
// family.
const (
	TokenDOI     = "[DOI]"
	TokenGeneral = "[GENERAL]"
	TokenOther   = "[OTHER]"
)

// Side-file names, colocated with the source corpus.
const (
	DOIVocabFile     = "doi_domain.json"
	DiverseVocabFile = "diverse_domain.json"
)

// ErrVocabularyNotFound means a non-training split was processed before the
// training split persisted the domain vocabulary.
var ErrVocabularyNotFound = errors.New("domain vocabulary file not found")

// UnknownDomainError reports a domain absent from the vocabulary with no
// fallback token defined for the variant.
type UnknownDomainError struct {
	Domain string
}

func (e *UnknownDomainError) Error() string {
	return fmt.Sprintf("domain %q is not in the vocabulary", e.Domain)
}

// Vocabulary assigns stable integer IDs to domain names and reserved tokens,
// insertion-ordered starting at 0.
type Vocabulary struct {
	names []string
	ids   map[string]int
}

// New returns an empty vocabulary.
func New() *Vocabulary {
	return &Vocabulary{ids: make(map[string]int)}
}

// Add assigns the next free ID to name, or returns the existing ID.
func (v *Vocabulary) Add(name string) int {
	if id, ok := v.ids[name]; ok {
		return id
	}
	id := len(v.names)
	v.ids[name] = id
	v.names = append(v.names, name)
	return id
}

// ID returns the ID mapped to name.
func (v *Vocabulary) ID(name string) (int, bool) {
	id, ok := v.ids[name]
	return id, ok
}

// Resolve returns the ID for domain, falling back to the given reserved
// token when the variant defines one (empty string means no fallback).
func (v *Vocabulary) Resolve(domain, fallback string) (int, error) {
	if id, ok := v.ids[domain]; ok {
		return id, nil
	}
	if fallback != "" {
		if id, ok := v.ids[fallback]; ok {
			return id, nil
		}
	}
	return 0, &UnknownDomainError{Domain: domain}
}

// Len returns the number of entries.
func (v *Vocabulary) Len() int { return len(v.names) }

// Names returns all entries in ID order.
func (v *Vocabulary) Names() []string { return v.names }

// Build assigns IDs to reserved tokens first, then to domains in first-seen
// order, skipping any domain in skip. The exclude-DOI variant passes its DOI
// set as skip so the merged token stands in for those domains.
func Build(domains, reserved []string, skip map[string]struct{}) *Vocabulary {
	v := New()
	for _, tok := range reserved {
		v.Add(tok)
	}
	for _, d := range domains {
		if _, drop := skip[d]; drop {
			continue
		}
		v.Add(d)
	}
	return v
}

// Save persists the vocabulary as a JSON object mapping name to ID.
func (v *Vocabulary) Save(path string) error {
	data, err := json.Marshal(v.ids)
	if err != nil {
		return fmt.Errorf("failed to encode vocabulary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write vocabulary %s: %w", path, err)
	}
	return nil
}

// Load reads a vocabulary persisted by Save. A missing file is reported as
// ErrVocabularyNotFound since it means the training split never ran.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrVocabularyNotFound, path)
		}
		return nil, fmt.Errorf("failed to read vocabulary %s: %w", path, err)
	}
	ids := make(map[string]int)
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to decode vocabulary %s: %w", path, err)
	}
	names := make([]string, 0, len(ids))
	for name := range ids {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return ids[names[i]] < ids[names[j]] })
	return &Vocabulary{names: names, ids: ids}, nil
}
