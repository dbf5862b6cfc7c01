package viaf

import "fmt"

// SchemaError reports a document that lacks the document-level elements of
// an SRU search response. It aborts the whole document.
type SchemaError struct {
	Element string
	Reason  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("viaf: schema: %s %s", e.Element, e.Reason)
}

// MissingFieldError reports a record without a mandatory field. Only that
// record is abandoned.
type MissingFieldError struct {
	Record int
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("viaf: record %d: missing %s", e.Record, e.Field)
}

// Warning is a non-fatal data-quality finding: a malformed occurrence that
// was skipped while the rest of the facet was extracted.
type Warning struct {
	Record  string `json:"record,omitempty" yaml:"record,omitempty"`
	Facet   string `json:"facet" yaml:"facet"`
	Message string `json:"message" yaml:"message"`
}

func (w Warning) String() string {
	if w.Record == "" {
		return w.Facet + ": " + w.Message
	}
	return w.Record + ": " + w.Facet + ": " + w.Message
}

func warnf(facet, format string, args ...any) Warning {
	return Warning{Facet: facet, Message: fmt.Sprintf(format, args...)}
}
