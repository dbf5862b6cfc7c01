package viaf

import (
	"strings"

	"github.com/sells-group/authority-cli/internal/markup"
)

// nonNameSubfields are MARC subfields that qualify a heading rather than
// spell it, and so stay out of display text.
var nonNameSubfields = map[string]bool{
	"e": true, "i": true, "w": true, "0": true, "1": true,
	"4": true, "5": true, "6": true, "8": true, "9": true,
}

// Subfield is one coded MARC subfield.
type Subfield struct {
	Code  string `json:"code" yaml:"code"`
	Value string `json:"value" yaml:"value"`
}

// DataField is a MARC-like datafield as contributed by one source.
type DataField struct {
	DType     string     `json:"dtype,omitempty" yaml:"dtype,omitempty"`
	Tag       string     `json:"tag" yaml:"tag"`
	Ind1      string     `json:"ind1" yaml:"ind1"`
	Ind2      string     `json:"ind2" yaml:"ind2"`
	Subfields []Subfield `json:"subfields" yaml:"subfields"`
}

// Get returns the first subfield with the given code.
func (d DataField) Get(code string) (string, bool) {
	for _, sf := range d.Subfields {
		if sf.Code == code {
			return sf.Value, true
		}
	}
	return "", false
}

// Map returns subfields keyed by code. Repeated codes keep their first value.
func (d DataField) Map() map[string]string {
	m := make(map[string]string, len(d.Subfields))
	for _, sf := range d.Subfields {
		if _, ok := m[sf.Code]; !ok {
			m[sf.Code] = sf.Value
		}
	}
	return m
}

// DisplayText joins the name-forming subfields with single spaces.
func (d DataField) DisplayText() string {
	parts := make([]string, 0, len(d.Subfields))
	for _, sf := range d.Subfields {
		if nonNameSubfields[sf.Code] || sf.Value == "" {
			continue
		}
		parts = append(parts, sf.Value)
	}
	return strings.Join(parts, " ")
}

func parseDataField(n *markup.Node) (DataField, bool) {
	if n == nil {
		return DataField{}, false
	}
	var df DataField
	df.DType, _ = n.Attr("dtype")
	df.Tag, _ = n.Attr("tag")
	df.Ind1, _ = n.Attr("ind1")
	df.Ind2, _ = n.Attr("ind2")
	for _, sf := range n.Children("subfield") {
		code, ok := sf.Attr("code")
		if !ok {
			continue
		}
		df.Subfields = append(df.Subfields, Subfield{Code: code, Value: sf.Text()})
	}
	return df, true
}

// sourceCodes returns the contributing codes listed under a sources child.
func sourceCodes(n *markup.Node) []string {
	var codes []string
	for _, s := range n.Find("sources", "s") {
		if v := s.Text(); v != "" {
			codes = append(codes, v)
		}
	}
	return codes
}

// dataOccurrences expands the data elements of an aggregate block into one
// occurrence per contributing source. A data element without sources yields
// one sourceless occurrence; one without text yields a single empty
// occurrence for the engine to report.
func dataOccurrences(block *markup.Node, child string) []Occurrence {
	var occs []Occurrence
	for i, d := range block.Children(child) {
		text, _ := d.ChildText("text")
		fields := make(map[string]string, len(d.Attrs))
		for _, a := range d.Attrs {
			fields[a.Name] = a.Value
		}

		codes := sourceCodes(d)
		if text == "" || len(codes) == 0 {
			occs = append(occs, Occurrence{Text: text, Element: i, Fields: fields})
			continue
		}
		for _, code := range codes {
			occs = append(occs, Occurrence{Source: code, Text: text, Element: i, Fields: fields})
		}
	}
	return occs
}
