package viaf

import (
	"strconv"
	"strings"
)

const facetDates = "dates"

// YearCount is one histogram bucket.
type YearCount struct {
	Count    int `json:"count" yaml:"count"`
	Holdings int `json:"holdings,omitempty" yaml:"holdings,omitempty"`
}

// DateHistogram summarizes the publication dates attached to a cluster.
// Min and Max are absent when no date could be read.
type DateHistogram struct {
	Min     *int                 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *int                 `json:"max,omitempty" yaml:"max,omitempty"`
	ByYear  map[string]YearCount `json:"by_year" yaml:"by_year"`
	Entries []FacetEntry         `json:"entries" yaml:"entries"`
}

// ExtractDates aggregates the date elements of a cluster and folds them into
// a histogram with the smallest and largest year seen.
func ExtractDates(r Record) (DateHistogram, []Warning) {
	hist := DateHistogram{
		ByYear:  make(map[string]YearCount),
		Entries: make([]FacetEntry, 0),
	}
	block := r.node.Child(facetDates)
	if block == nil {
		return hist, nil
	}

	var (
		warnings []Warning
		occs     []Occurrence
	)
	for i, d := range block.Children("date") {
		text := d.Text()
		if text != "" {
			if _, ok := leadingYear(text); !ok {
				warnings = append(warnings, warnf(facetDates, "date %d is not a year: %q", i, text))
				continue
			}
		}
		fields := make(map[string]string, len(d.Attrs))
		for _, a := range d.Attrs {
			fields[a.Name] = a.Value
		}
		codes := sourceCodes(d)
		if len(codes) == 0 {
			occs = append(occs, Occurrence{Text: text, Element: i, Fields: fields})
			continue
		}
		for _, code := range codes {
			occs = append(occs, Occurrence{Source: code, Text: text, Element: i, Fields: fields})
		}
	}

	entries, aggWarnings := Aggregate(facetDates, occs, yearKey, SumHoldings)
	warnings = append(warnings, aggWarnings...)
	hist.Entries = entries

	for _, e := range entries {
		year, _ := leadingYear(e.Text)
		key := strconv.Itoa(year)
		bucket := hist.ByYear[key]
		bucket.Count += e.Count
		bucket.Holdings += e.Holdings
		hist.ByYear[key] = bucket

		if hist.Min == nil || year < *hist.Min {
			y := year
			hist.Min = &y
		}
		if hist.Max == nil || year > *hist.Max {
			y := year
			hist.Max = &y
		}
	}
	return hist, warnings
}

func yearKey(o Occurrence) string {
	year, ok := leadingYear(o.Text)
	if !ok {
		return ""
	}
	return strconv.Itoa(year)
}

// leadingYear reads the leading run of digits of a date string ("1950",
// "1950-03-12", "195").
func leadingYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	year, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return year, true
}
