package corpus

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorpusInsertionOrder(t *testing.T) {
	c := NewCorpus()
	c.Append("books", "5.0", "id1", "line one")
	c.Append("music", "1.0", "id2", "line two")
	c.Append("books", "1.0", "id3", "line three")
	c.Append("books", "5.0", "id4", "line four")
	c.Append("books", "5.0", "id1", "line five")

	assert.Equal(t, []string{"books", "music"}, c.Domains())
	assert.Equal(t, []string{"5.0", "1.0"}, c.Ratings("books"))
	assert.Equal(t, []string{"id1", "id4"}, c.Identifiers("books", "5.0"))
	assert.Equal(t, []string{"line one", "line five"}, c.Texts("books", "5.0", "id1"))
	assert.Equal(t, 2, c.Len())
}

func TestCorpusLookupsDoNotCreateGroups(t *testing.T) {
	c := NewCorpus()
	assert.Nil(t, c.Ratings("ghost"))
	assert.Nil(t, c.Identifiers("ghost", "5.0"))
	assert.Nil(t, c.Texts("ghost", "5.0", "id"))
	assert.Equal(t, 0, c.IdentifierCount("ghost", "5.0"))
	assert.Equal(t, 0, c.Len())
}

func TestCorpusClear(t *testing.T) {
	c := NewCorpus()
	c.Append("books", "5.0", "id1", "a")
	c.Append("books", "5.0", "id2", "b")

	c.Clear("books", "5.0", "id1")

	assert.Nil(t, c.Texts("books", "5.0", "id1"))
	// identifier stays tracked so the cap still counts it
	assert.True(t, c.Tracked("books", "5.0", "id1"))
	assert.Equal(t, 2, c.IdentifierCount("books", "5.0"))
	// siblings untouched
	assert.Equal(t, []string{"b"}, c.Texts("books", "5.0", "id2"))
}

func TestGrouperFilterModes(t *testing.T) {
	dois := []string{"Restaurants"}
	recIn := &Record{ID: "a", Rating: "5.0", Domain: "Restaurants", Body: []string{"x"}}
	recOut := &Record{ID: "b", Rating: "5.0", Domain: "books", Body: []string{"y"}}

	tests := []struct {
		name    string
		filter  FilterMode
		domains []string
	}{
		{"include keeps only DOIs", FilterInclude, []string{"Restaurants"}},
		{"exclude drops DOIs", FilterExclude, []string{"books"}},
		{"none keeps everything", FilterNone, []string{"Restaurants", "books"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrouper(tt.filter, dois, 0)
			g.Add(recIn)
			g.Add(recOut)
			assert.Equal(t, tt.domains, g.Corpus().Domains())
		})
	}
}

func TestGrouperCap(t *testing.T) {
	g := NewGrouper(FilterNone, nil, 2)
	g.Add(&Record{ID: "a", Rating: "5.0", Domain: "books", Body: []string{"1"}})
	g.Add(&Record{ID: "b", Rating: "5.0", Domain: "books", Body: []string{"2"}})
	// cap reached: new identifier dropped
	g.Add(&Record{ID: "c", Rating: "5.0", Domain: "books", Body: []string{"3"}})
	// already-tracked identifier keeps accumulating
	g.Add(&Record{ID: "a", Rating: "5.0", Domain: "books", Body: []string{"4"}})
	// other rating groups count separately
	g.Add(&Record{ID: "d", Rating: "1.0", Domain: "books", Body: []string{"5"}})

	c := g.Corpus()
	assert.Equal(t, []string{"a", "b"}, c.Identifiers("books", "5.0"))
	assert.Equal(t, []string{"1", "4"}, c.Texts("books", "5.0", "a"))
	assert.Equal(t, []string{"d"}, c.Identifiers("books", "1.0"))
}

func TestGrouperConsume(t *testing.T) {
	input := strings.Join([]string{
		"A1 Restaurants 5.0",
		"good food",
		"",
		"B2 books/fiction/scifi/extra 2.0",
		"dull plot",
		"slow start",
	}, "\n")

	g := NewGrouper(FilterNone, nil, 0)
	err := g.Consume(NewParser(strings.NewReader(input)))
	require.NoError(t, err)

	c := g.Corpus()
	assert.Equal(t, []string{"Restaurants", "books/fiction/scifi"}, c.Domains())
	assert.Equal(t, []string{"dull plot", "slow start"}, c.Texts("books/fiction/scifi", "2.0", "B2"))
}

func TestGrouperConsumeMalformed(t *testing.T) {
	g := NewGrouper(FilterNone, nil, 0)
	err := g.Consume(NewParser(strings.NewReader("oops\n")))
	var merr *MalformedRecordError
	require.ErrorAs(t, err, &merr)
}
