package viaf

import (
	"math"
	"strings"
)

// Facet block names as they appear in the cluster.
const (
	FacetCoAuthors        = "coauthors"
	FacetPublishers       = "publishers"
	FacetRecFormats       = "RecFormats"
	FacetRelatorCodes     = "RelatorCodes"
	FacetISBNs            = "ISBNs"
	FacetCovers           = "covers"
	FacetCountries        = "countries"
	FacetNationality      = "nationalityOfEntity"
	FacetLanguageOfEntity = "languageOfEntity"
)

// ScalePolicy sets how country weights are scaled. Weight is
// Factor * count / divisor, where the divisor is Divisor when positive and
// the number of country occurrences in the record otherwise.
type ScalePolicy struct {
	Divisor int     `json:"divisor" yaml:"divisor" mapstructure:"divisor"`
	Factor  float64 `json:"factor" yaml:"factor" mapstructure:"factor"`
}

// DefaultScalePolicy scales by the record's own country occurrences onto (0, 10].
var DefaultScalePolicy = ScalePolicy{Factor: 10}

// ExtractCoAuthors aggregates the co-author names of a cluster.
func ExtractCoAuthors(r Record) ([]FacetEntry, []Warning) {
	return extractData(r, FacetCoAuthors, Shapes(SumHoldings, tagShape))
}

// ExtractPublishers aggregates publisher names.
func ExtractPublishers(r Record) ([]FacetEntry, []Warning) {
	return extractData(r, FacetPublishers, SumHoldings)
}

// ExtractRecFormats aggregates record format codes (e.g. "am").
func ExtractRecFormats(r Record) ([]FacetEntry, []Warning) {
	return extractData(r, FacetRecFormats, SumHoldings)
}

// ExtractRelatorCodes aggregates contributor role codes.
func ExtractRelatorCodes(r Record) ([]FacetEntry, []Warning) {
	return extractData(r, FacetRelatorCodes, SumHoldings)
}

// ExtractISBNs aggregates ISBNs of works associated with the cluster.
func ExtractISBNs(r Record) ([]FacetEntry, []Warning) {
	return extractData(r, FacetISBNs, SumHoldings)
}

// ExtractLanguageOfEntity aggregates the languages the entity is associated with.
func ExtractLanguageOfEntity(r Record) ([]FacetEntry, []Warning) {
	return extractData(r, FacetLanguageOfEntity, SumHoldings)
}

// ExtractCovers aggregates cover identifiers and derives their cover token.
func ExtractCovers(r Record) ([]FacetEntry, []Warning) {
	return extractData(r, FacetCovers, Shapes(SumHoldings, coverShape))
}

// ExtractCountries aggregates publication countries, falling back to the
// nationality block when the cluster has no countries block.
func ExtractCountries(r Record, policy ScalePolicy) ([]FacetEntry, []Warning) {
	facet := FacetCountries
	if r.node.Child(FacetCountries) == nil && r.node.Child(FacetNationality) != nil {
		facet = FacetNationality
	}
	return extractData(r, facet, Shapes(SumHoldings, scaleShape(policy)))
}

func extractData(r Record, facet string, shape ShapeFunc) ([]FacetEntry, []Warning) {
	block := r.node.Child(facet)
	if block == nil {
		return make([]FacetEntry, 0), nil
	}
	return Aggregate(facet, dataOccurrences(block, "data"), DefaultKey, shape)
}

var tagShape = FirstField("tag", func(e *FacetEntry, v string) { e.Tag = v })

func coverShape(entry *FacetEntry, _ []Occurrence, _ int) {
	if token, ok := CoverToken(entry.Text); ok {
		entry.Token = &token
	}
}

func scaleShape(policy ScalePolicy) ShapeFunc {
	factor := policy.Factor
	if factor <= 0 {
		factor = DefaultScalePolicy.Factor
	}
	return func(entry *FacetEntry, _ []Occurrence, total int) {
		divisor := policy.Divisor
		if divisor <= 0 {
			divisor = total
		}
		if divisor <= 0 {
			return
		}
		scaled := math.Round(factor*float64(entry.Count)/float64(divisor)*100) / 100
		entry.Scaled = &scaled
	}
}

// coverKey is added position by position to the identifier digits.
var coverKey = [...]int{1, 5, 3, 0, 2, 8, 0, 7, 5, 9}

// CoverToken derives the cover-service token of an ISBN or similar
// identifier: each digit is shifted by a fixed per-position offset, and an
// X check digit counts as ten. Other characters are ignored.
func CoverToken(identifier string) (string, bool) {
	var b strings.Builder
	b.WriteString("+-+")
	pos := 0
	for _, c := range identifier {
		var d int
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c == 'X' || c == 'x':
			d = 10
		default:
			continue
		}
		b.WriteByte(byte('0' + (d+coverKey[pos%len(coverKey)])%10))
		pos++
	}
	if pos == 0 {
		return "", false
	}
	return b.String(), true
}
