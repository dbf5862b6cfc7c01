package viaf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_StableGrouping(t *testing.T) {
	occs := []Occurrence{
		{Source: "LC", Text: "Charters, Ann.", Element: 0},
		{Source: "DNB", Text: "Ginsberg, Allen", Element: 1},
		{Source: "BNF", Text: "CHARTERS, ANN", Element: 2},
		{Source: "LC", Text: "Charters Ann", Element: 3},
	}

	entries, warnings := Aggregate("coauthors", occs, nil, nil)
	assert.Empty(t, warnings)
	require.Len(t, entries, 2)

	assert.Equal(t, "Charters, Ann.", entries[0].Text)
	assert.Equal(t, 3, entries[0].Count)
	assert.Equal(t, []string{"LC", "BNF"}, entries[0].Sources)
	assert.Equal(t, 0, entries[0].Element)

	assert.Equal(t, "Ginsberg, Allen", entries[1].Text)
	assert.Equal(t, 1, entries[1].Count)
}

func TestAggregate_ExactKeyKeepsVariants(t *testing.T) {
	occs := []Occurrence{
		{Source: "LC", Text: "Kerouac, Jack"},
		{Source: "DNB", Text: "Kerouac, Jack."},
		{Source: "BNF", Text: "Kerouac, Jack"},
	}
	entries, _ := Aggregate("mainHeadings", occs, ExactKey, nil)
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[0].Count)
	assert.Equal(t, []string{"LC", "BNF"}, entries[0].Sources)
}

func TestAggregate_SkipsMalformed(t *testing.T) {
	occs := []Occurrence{
		{Source: "LC", Text: "Gallimard"},
		{Source: "LC", Text: ""},
		{Source: "BNF", Text: "!!!"},
		{Source: "BNF", Text: "gallimard"},
	}
	entries, warnings := Aggregate("publishers", occs, nil, nil)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Count)
	assert.Len(t, warnings, 2)
	for _, w := range warnings {
		assert.Equal(t, "publishers", w.Facet)
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	entries, warnings := Aggregate("isbns", nil, nil, nil)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
	assert.Empty(t, warnings)
}

func TestAggregate_SourcelessOccurrences(t *testing.T) {
	occs := []Occurrence{{Text: "1950"}, {Text: "1950"}}
	entries, _ := Aggregate("dates", occs, nil, nil)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Count)
	assert.Empty(t, entries[0].Sources)
}

func TestAggregate_ShapeSeesTotal(t *testing.T) {
	occs := []Occurrence{
		{Source: "LC", Text: "US"},
		{Source: "DNB", Text: "US"},
		{Source: "BNF", Text: "FR"},
		{Source: "LC", Text: ""},
	}
	var totals []int
	_, _ = Aggregate("countries", occs, nil, func(_ *FacetEntry, _ []Occurrence, total int) {
		totals = append(totals, total)
	})
	assert.Equal(t, []int{3, 3}, totals)
}

func TestSumHoldings_CountsEachElementOnce(t *testing.T) {
	occs := []Occurrence{
		{Source: "LC", Text: "am", Element: 0, Fields: map[string]string{"count": "10"}},
		{Source: "DNB", Text: "am", Element: 0, Fields: map[string]string{"count": "10"}},
		{Source: "BNF", Text: "AM", Element: 1, Fields: map[string]string{"count": "5"}},
		{Source: "NLA", Text: "am", Element: 2, Fields: map[string]string{"count": "bogus"}},
	}
	entries, _ := Aggregate("RecFormats", occs, nil, SumHoldings)
	require.Len(t, entries, 1)
	assert.Equal(t, 15, entries[0].Holdings)
	assert.Equal(t, 4, entries[0].Count)
}

func TestShapes_RunsInOrder(t *testing.T) {
	var calls []string
	shape := Shapes(
		func(*FacetEntry, []Occurrence, int) { calls = append(calls, "a") },
		nil,
		func(*FacetEntry, []Occurrence, int) { calls = append(calls, "b") },
	)
	_, _ = Aggregate("x", []Occurrence{{Text: "v"}}, nil, shape)
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestFirstField(t *testing.T) {
	occs := []Occurrence{
		{Text: "Title", Fields: map[string]string{}},
		{Text: "title", Fields: map[string]string{"id": "VIAF|1"}},
		{Text: "TITLE", Fields: map[string]string{"id": "VIAF|2"}},
	}
	shape := FirstField("id", func(e *FacetEntry, v string) { e.ID = v })
	entries, _ := Aggregate("titles", occs, nil, shape)
	require.Len(t, entries, 1)
	assert.Equal(t, "VIAF|1", entries[0].ID)
}
