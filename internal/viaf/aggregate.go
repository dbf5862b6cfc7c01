package viaf

import (
	"strconv"
)

// Occurrence is one contributed value of a repeated facet element. An
// element listing several contributing sources yields one occurrence per
// source.
type Occurrence struct {
	Source string
	Text   string
	// Element is the ordinal of the originating element within its facet
	// block. Occurrences split from the same element share it.
	Element int
	Fields  map[string]string
}

// FacetEntry is one group of occurrences sharing a key.
type FacetEntry struct {
	Text    string   `json:"text" yaml:"text"`
	Count   int      `json:"count" yaml:"count"`
	Sources []string `json:"sources" yaml:"sources"`

	// Holdings sums the server-reported count attribute over the distinct
	// elements merged into this entry.
	Holdings int      `json:"holdings,omitempty" yaml:"holdings,omitempty"`
	Scaled   *float64 `json:"scaled,omitempty" yaml:"scaled,omitempty"`
	Token    *string  `json:"token,omitempty" yaml:"token,omitempty"`
	Tag      string   `json:"tag,omitempty" yaml:"tag,omitempty"`
	ID       string   `json:"id,omitempty" yaml:"id,omitempty"`

	// Element is the originating element of the canonical occurrence.
	Element int `json:"-" yaml:"-"`
}

// KeyFunc derives the grouping key of an occurrence.
type KeyFunc func(Occurrence) string

// ShapeFunc fills facet-specific fields of an entry from its group. total is
// the number of occurrences aggregated across all groups.
type ShapeFunc func(entry *FacetEntry, group []Occurrence, total int)

// Aggregate groups occurrences by key in first-seen order. The first
// occurrence of a group supplies its display text; later variants only add
// to the count and the source set. Occurrences without text are skipped and
// reported as warnings. The result is never nil.
func Aggregate(facet string, occs []Occurrence, key KeyFunc, shape ShapeFunc) ([]FacetEntry, []Warning) {
	if key == nil {
		key = DefaultKey
	}

	var (
		warnings []Warning
		order    []string
		groups   = make(map[string][]Occurrence)
		total    int
	)
	for _, o := range occs {
		if o.Text == "" {
			warnings = append(warnings, warnf(facet, "element %d has no text", o.Element))
			continue
		}
		k := key(o)
		if k == "" {
			warnings = append(warnings, warnf(facet, "element %d has no usable key in %q", o.Element, o.Text))
			continue
		}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], o)
		total++
	}

	entries := make([]FacetEntry, 0, len(order))
	for _, k := range order {
		group := groups[k]
		entry := FacetEntry{
			Text:    group[0].Text,
			Count:   len(group),
			Sources: dedupeSources(group),
			Element: group[0].Element,
		}
		if shape != nil {
			shape(&entry, group, total)
		}
		entries = append(entries, entry)
	}
	return entries, warnings
}

func dedupeSources(group []Occurrence) []string {
	sources := make([]string, 0, len(group))
	seen := make(map[string]bool, len(group))
	for _, o := range group {
		if o.Source == "" || seen[o.Source] {
			continue
		}
		seen[o.Source] = true
		sources = append(sources, o.Source)
	}
	return sources
}

// Shapes runs several shape functions in order.
func Shapes(fns ...ShapeFunc) ShapeFunc {
	return func(entry *FacetEntry, group []Occurrence, total int) {
		for _, fn := range fns {
			if fn != nil {
				fn(entry, group, total)
			}
		}
	}
}

// SumHoldings adds the count field of each distinct element in the group.
// Unparseable counts contribute nothing.
func SumHoldings(entry *FacetEntry, group []Occurrence, _ int) {
	seen := make(map[int]bool, len(group))
	for _, o := range group {
		if seen[o.Element] {
			continue
		}
		seen[o.Element] = true
		if n, err := strconv.Atoi(o.Fields["count"]); err == nil && n > 0 {
			entry.Holdings += n
		}
	}
}

// FirstField copies a raw field of the first occurrence carrying it into the entry.
func FirstField(field string, set func(*FacetEntry, string)) ShapeFunc {
	return func(entry *FacetEntry, group []Occurrence, _ int) {
		for _, o := range group {
			if v := o.Fields[field]; v != "" {
				set(entry, v)
				return
			}
		}
	}
}
