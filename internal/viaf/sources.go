package viaf

import (
	"strconv"
	"strings"
)

const facetSources = "sources"

// SourceEntry is one contributing authority file.
type SourceEntry struct {
	NSID           string `json:"nsid" yaml:"nsid"`
	Source         string `json:"source" yaml:"source"`
	Value          string `json:"value" yaml:"value"`
	Differentiated bool   `json:"differentiated" yaml:"differentiated"`
	Sparse         bool   `json:"sparse" yaml:"sparse"`
}

// ExtractSources lists the contributing sources of a cluster, one entry per
// source code. The first entry for a code wins; later ones are reported.
func ExtractSources(r Record) ([]SourceEntry, []Warning) {
	var warnings []Warning
	entries := make([]SourceEntry, 0)
	seen := make(map[string]bool)

	for i, s := range r.node.Find("sources", "source") {
		value := s.Text()
		code := sourceCode(value)
		if code == "" {
			warnings = append(warnings, warnf(facetSources, "source %d has no code in %q", i, value))
			continue
		}
		if seen[code] {
			warnings = append(warnings, warnf(facetSources, "duplicate source %s (%q) ignored", code, value))
			continue
		}
		seen[code] = true

		nsid, _ := s.Attr("nsid")
		entries = append(entries, SourceEntry{
			NSID:           nsid,
			Source:         code,
			Value:          value,
			Differentiated: boolAttr(s.Attr("differentiated")),
			Sparse:         boolAttr(s.Attr("sparse")),
		})
	}
	return entries, warnings
}

// sourceCode returns the institution code of a "CODE|local id" value.
func sourceCode(value string) string {
	code, _, ok := strings.Cut(value, "|")
	if !ok {
		return ""
	}
	return strings.TrimSpace(code)
}

func boolAttr(v string, ok bool) bool {
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}
