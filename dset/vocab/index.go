package vocab

import (
	"strings"

	"github.com/armon/go-radix"
)

// Index provides O(k) prefix lookups over the vocabulary's domain paths,
// where k is the length of the queried prefix. Reserved tokens ([DOI],
// [GENERAL], [OTHER]) are not indexed.
type Index struct {
	tree *radix.Tree
}

// NewIndex builds a patricia-tree index over the vocabulary's domains.
func NewIndex(v *Vocabulary) *Index {
	tree := radix.New()
	for _, name := range v.Names() {
		if strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
			continue
		}
		id, _ := v.ID(name)
		tree.Insert(name, id)
	}
	return &Index{tree: tree}
}

// DomainsUnder returns every indexed domain path starting with prefix, in
// lexicographic order.
func (idx *Index) DomainsUnder(prefix string) []string {
	var out []string
	idx.tree.WalkPrefix(prefix, func(k string, _ interface{}) bool {
		out = append(out, k)
		return false
	})
	return out
}

// LookupID returns the vocabulary ID for an exact domain path.
func (idx *Index) LookupID(domain string) (int, bool) {
	val, ok := idx.tree.Get(domain)
	if !ok {
		return 0, false
	}
	return val.(int), true
}
