package corpus

import (
	"errors"
	"io"
	"log/slog"
)

// FilterMode decides how the domain-of-interest set gates accumulation.
type FilterMode int

const (
	// FilterNone accumulates every domain.
	FilterNone FilterMode = iota
	// FilterInclude accumulates only domains in the DOI set.
	FilterInclude
	// FilterExclude accumulates only domains outside the DOI set.
	FilterExclude
)

// Corpus is an insertion-ordered domain -> rating -> identifier -> text-lines
// accumulation. Groups are created only through Append; lookups never create
// empty groups.
type Corpus struct {
	domains []string
	groups  map[string]*domainGroup
}

type domainGroup struct {
	ratings  []string
	byRating map[string]*ratingGroup
}

type ratingGroup struct {
	ids   []string
	texts map[string][]string
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{groups: make(map[string]*domainGroup)}
}

// Append adds one text line under (domain, rating, id), creating the group
// path on first use.
func (c *Corpus) Append(domain, rating, id, text string) {
	dg, ok := c.groups[domain]
	if !ok {
		dg = &domainGroup{byRating: make(map[string]*ratingGroup)}
		c.groups[domain] = dg
		c.domains = append(c.domains, domain)
	}
	rg, ok := dg.byRating[rating]
	if !ok {
		rg = &ratingGroup{texts: make(map[string][]string)}
		dg.byRating[rating] = rg
		dg.ratings = append(dg.ratings, rating)
	}
	if _, ok := rg.texts[id]; !ok {
		rg.ids = append(rg.ids, id)
	}
	rg.texts[id] = append(rg.texts[id], text)
}

// Len returns the number of distinct domains.
func (c *Corpus) Len() int { return len(c.domains) }

// Domains returns domain names in first-seen order.
func (c *Corpus) Domains() []string { return c.domains }

// Ratings returns the ratings seen under domain, in first-seen order.
func (c *Corpus) Ratings(domain string) []string {
	if dg, ok := c.groups[domain]; ok {
		return dg.ratings
	}
	return nil
}

// Identifiers returns the identifiers tracked under (domain, rating), in
// first-seen order.
func (c *Corpus) Identifiers(domain, rating string) []string {
	if rg := c.rating(domain, rating); rg != nil {
		return rg.ids
	}
	return nil
}

// IdentifierCount returns how many identifiers are tracked under
// (domain, rating) without creating the group.
func (c *Corpus) IdentifierCount(domain, rating string) int {
	if rg := c.rating(domain, rating); rg != nil {
		return len(rg.ids)
	}
	return 0
}

// Tracked reports whether (domain, rating, id) already accumulates text.
func (c *Corpus) Tracked(domain, rating, id string) bool {
	rg := c.rating(domain, rating)
	if rg == nil {
		return false
	}
	_, ok := rg.texts[id]
	return ok
}

// Texts returns the accumulated lines for (domain, rating, id) in file order.
func (c *Corpus) Texts(domain, rating, id string) []string {
	if rg := c.rating(domain, rating); rg != nil {
		return rg.texts[id]
	}
	return nil
}

// Clear drops the text lines held for (domain, rating, id) so memory can be
// reclaimed once the chunker has consumed them. The identifier stays tracked;
// sibling groups are untouched.
func (c *Corpus) Clear(domain, rating, id string) {
	if rg := c.rating(domain, rating); rg != nil {
		if _, ok := rg.texts[id]; ok {
			rg.texts[id] = nil
		}
	}
}

func (c *Corpus) rating(domain, rating string) *ratingGroup {
	if dg, ok := c.groups[domain]; ok {
		return dg.byRating[rating]
	}
	return nil
}

// Grouper routes parsed records into a Corpus subject to a DOI filter and an
// optional cap on distinct identifiers per (domain, rating).
type Grouper struct {
	corpus *Corpus
	filter FilterMode
	dois   map[string]struct{}
	cap    int
}

// NewGrouper builds a grouper over a fresh corpus. cap <= 0 means unlimited.
func NewGrouper(filter FilterMode, dois []string, cap int) *Grouper {
	set := make(map[string]struct{}, len(dois))
	for _, d := range dois {
		set[d] = struct{}{}
	}
	return &Grouper{corpus: NewCorpus(), filter: filter, dois: set, cap: cap}
}

// Corpus exposes the accumulated corpus.
func (g *Grouper) Corpus() *Corpus { return g.corpus }

// Add routes one record's body lines into the corpus.
func (g *Grouper) Add(rec *Record) {
	if !g.admits(rec.Domain) {
		return
	}
	for _, text := range rec.Body {
		// New identifiers are dropped once the cap is reached; identifiers
		// already tracked keep accumulating lines.
		if g.cap > 0 && !g.corpus.Tracked(rec.Domain, rec.Rating, rec.ID) &&
			g.corpus.IdentifierCount(rec.Domain, rec.Rating) >= g.cap {
			return
		}
		g.corpus.Append(rec.Domain, rec.Rating, rec.ID, text)
	}
}

// Consume drains a parser into the corpus, returning the first parse error.
func (g *Grouper) Consume(p *Parser) error {
	n := 0
	for {
		rec, err := p.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		g.Add(rec)
		n++
	}
	slog.Info("Corpus grouped", "records", n, "domains", g.corpus.Len())
	return nil
}

func (g *Grouper) admits(domain string) bool {
	_, doi := g.dois[domain]
	switch g.filter {
	case FilterInclude:
		return doi
	case FilterExclude:
		return !doi
	default:
		return true
	}
}
