package viaf

const facetTitles = "titles"

// ExtractTitles aggregates the works attributed to a cluster. Each entry
// keeps the work identifier of its first occurrence.
func ExtractTitles(r Record) ([]FacetEntry, []Warning) {
	block := r.node.Child(facetTitles)
	if block == nil {
		return make([]FacetEntry, 0), nil
	}

	var occs []Occurrence
	for i, w := range block.Children("work") {
		title, _ := w.ChildText("title")
		fields := map[string]string{}
		if id, ok := w.Attr("id"); ok {
			fields["id"] = id
		}
		codes := sourceCodes(w)
		if title == "" || len(codes) == 0 {
			occs = append(occs, Occurrence{Text: title, Element: i, Fields: fields})
			continue
		}
		for _, code := range codes {
			occs = append(occs, Occurrence{Source: code, Text: title, Element: i, Fields: fields})
		}
	}

	idShape := FirstField("id", func(e *FacetEntry, v string) { e.ID = v })
	return Aggregate(facetTitles, occs, DefaultKey, idShape)
}
