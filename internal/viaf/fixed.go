package viaf

import (
	"strings"
	"unicode/utf8"
)

// genderLabels decodes the fixed-field gender code.
var genderLabels = map[string]string{
	"a": "female",
	"b": "male",
	"u": "unknown",
}

// FixedFields holds the decoded fixed-field block.
type FixedFields struct {
	Gender      *string           `json:"gender,omitempty" yaml:"gender,omitempty"`
	GenderLabel *string           `json:"gender_label,omitempty" yaml:"gender_label,omitempty"`
	Codes       map[string]string `json:"codes,omitempty" yaml:"codes,omitempty"`
}

// ExtractFixed decodes the fixed-field block. Named child elements are read
// as-is; a block carrying only a positional code string has the gender code
// in its first position. Unknown codes leave the label absent.
func ExtractFixed(r Record) FixedFields {
	var out FixedFields
	block := r.node.Child("fixed")
	if block == nil {
		return out
	}

	for _, c := range block.Elements() {
		if v := c.Text(); v != "" {
			if out.Codes == nil {
				out.Codes = make(map[string]string)
			}
			out.Codes[c.Tag] = v
		}
	}

	gender := out.Codes["gender"]
	if gender == "" && len(block.Elements()) == 0 {
		if code := block.Text(); code != "" {
			first, _ := utf8.DecodeRuneInString(code)
			gender = strings.ToLower(string(first))
		}
	}
	if gender == "" {
		return out
	}

	out.Gender = &gender
	if label, ok := genderLabels[gender]; ok {
		out.GenderLabel = &label
	}
	return out
}
