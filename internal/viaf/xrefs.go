package viaf

const (
	facetX400 = "x400s"
	facetX500 = "x500s"
)

// CrossReference is a see-from (4XX) or see-also (5XX) variant, merged
// across the sources that spell it the same modulo case, punctuation and
// diacritics.
type CrossReference struct {
	Normalized string            `json:"normalized" yaml:"normalized"`
	DType      string            `json:"dtype,omitempty" yaml:"dtype,omitempty"`
	Tag        string            `json:"tag" yaml:"tag"`
	Ind1       string            `json:"ind1" yaml:"ind1"`
	Ind2       string            `json:"ind2" yaml:"ind2"`
	Subfields  map[string]string `json:"subfields" yaml:"subfields"`
	Sources    []string          `json:"sources" yaml:"sources"`
	Count      int               `json:"count" yaml:"count"`
	LinkedID   *string           `json:"linked_id,omitempty" yaml:"linked_id,omitempty"`
}

// ExtractX400 returns the see-from variants of a cluster.
func ExtractX400(r Record) ([]CrossReference, []Warning) {
	return extractCrossRefs(r, facetX400, "x400")
}

// ExtractX500 returns the see-also (related entity) variants of a cluster.
func ExtractX500(r Record) ([]CrossReference, []Warning) {
	return extractCrossRefs(r, facetX500, "x500")
}

func extractCrossRefs(r Record, block, child string) ([]CrossReference, []Warning) {
	refs := make([]CrossReference, 0)
	container := r.node.Child(block)
	if container == nil {
		return refs, nil
	}

	var (
		warnings []Warning
		occs     []Occurrence
		fields   = make(map[int]DataField)
		links    = make(map[int]string)
	)
	for i, x := range container.Children(child) {
		df, ok := parseDataField(x.Child("datafield"))
		if !ok {
			warnings = append(warnings, warnf(block, "%s %d has no datafield", child, i))
			continue
		}
		fields[i] = df
		if link, ok := x.Attr("viafLink"); ok && link != "" {
			links[i] = link
		}

		text := df.DisplayText()
		codes := sourceCodes(x)
		if len(codes) == 0 {
			occs = append(occs, Occurrence{Text: text, Element: i})
			continue
		}
		for _, code := range codes {
			occs = append(occs, Occurrence{Source: code, Text: text, Element: i})
		}
	}

	entries, aggWarnings := Aggregate(block, occs, DefaultKey, linkShape(links))
	warnings = append(warnings, aggWarnings...)

	for _, e := range entries {
		df := fields[e.Element]
		ref := CrossReference{
			Normalized: Normalize(e.Text),
			DType:      df.DType,
			Tag:        df.Tag,
			Ind1:       df.Ind1,
			Ind2:       df.Ind2,
			Subfields:  df.Map(),
			Sources:    e.Sources,
			Count:      e.Count,
		}
		if e.ID != "" {
			id := e.ID
			ref.LinkedID = &id
		}
		refs = append(refs, ref)
	}
	return refs, warnings
}

// linkShape records the first linked cluster id found among the group's elements.
func linkShape(links map[int]string) ShapeFunc {
	return func(entry *FacetEntry, group []Occurrence, _ int) {
		for _, o := range group {
			if link, ok := links[o.Element]; ok {
				entry.ID = link
				return
			}
		}
	}
}
