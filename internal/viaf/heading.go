package viaf

const facetMainHeading = "mainHeadings"

// HeadingVariant is one distinct heading text with the sources using it.
type HeadingVariant struct {
	Text    string   `json:"text" yaml:"text"`
	Sources []string `json:"sources" yaml:"sources"`
}

// HeadingElement is the structural form of a heading as one source records it.
type HeadingElement struct {
	ID        string            `json:"id" yaml:"id"`
	DType     string            `json:"dtype,omitempty" yaml:"dtype,omitempty"`
	Tag       string            `json:"tag" yaml:"tag"`
	Ind1      string            `json:"ind1" yaml:"ind1"`
	Ind2      string            `json:"ind2" yaml:"ind2"`
	Subfields map[string]string `json:"subfields" yaml:"subfields"`
	Source    string            `json:"source" yaml:"source"`
}

// MainHeading is the preferred-name block of a cluster.
type MainHeading struct {
	Heading  string           `json:"heading" yaml:"heading"`
	Variants []HeadingVariant `json:"variants" yaml:"variants"`
	Elements []HeadingElement `json:"elements" yaml:"elements"`
}

// ExtractMainHeading groups heading texts exactly (case and punctuation
// distinguish headings) and lists each source's structural breakdown
// without aggregation.
func ExtractMainHeading(r Record) (MainHeading, []Warning) {
	block := r.node.Child("mainHeadings")
	out := MainHeading{
		Variants: make([]HeadingVariant, 0),
		Elements: make([]HeadingElement, 0),
	}
	if block == nil {
		return out, nil
	}

	entries, warnings := Aggregate(facetMainHeading, dataOccurrences(block, "data"), ExactKey, nil)
	for _, e := range entries {
		out.Variants = append(out.Variants, HeadingVariant{Text: e.Text, Sources: e.Sources})
	}
	if len(out.Variants) > 0 {
		out.Heading = out.Variants[0].Text
	}

	for i, el := range block.Children("mainHeadingEl") {
		id, _ := el.ChildText("id")
		df, ok := parseDataField(el.Child("datafield"))
		if !ok {
			warnings = append(warnings, warnf(facetMainHeading, "mainHeadingEl %d (%q) has no datafield", i, id))
			continue
		}
		out.Elements = append(out.Elements, HeadingElement{
			ID:        id,
			DType:     df.DType,
			Tag:       df.Tag,
			Ind1:      df.Ind1,
			Ind2:      df.Ind2,
			Subfields: df.Map(),
			Source:    sourceCode(id),
		})
	}
	return out, warnings
}
