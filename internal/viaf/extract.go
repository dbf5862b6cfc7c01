package viaf

import (
	"go.uber.org/zap"
)

// Cluster is the fully extracted form of one record.
type Cluster struct {
	Basic            BasicInfo        `json:"basic" yaml:"basic"`
	Sources          []SourceEntry    `json:"sources" yaml:"sources"`
	MainHeading      MainHeading      `json:"main_heading" yaml:"main_heading"`
	Fixed            FixedFields      `json:"fixed" yaml:"fixed"`
	X400             []CrossReference `json:"x400s" yaml:"x400s"`
	X500             []CrossReference `json:"x500s" yaml:"x500s"`
	CoAuthors        []FacetEntry     `json:"coauthors" yaml:"coauthors"`
	Publishers       []FacetEntry     `json:"publishers" yaml:"publishers"`
	Dates            DateHistogram    `json:"dates" yaml:"dates"`
	RecFormats       []FacetEntry     `json:"rec_formats" yaml:"rec_formats"`
	RelatorCodes     []FacetEntry     `json:"relator_codes" yaml:"relator_codes"`
	ISBNs            []FacetEntry     `json:"isbns" yaml:"isbns"`
	Covers           []FacetEntry     `json:"covers" yaml:"covers"`
	Countries        []FacetEntry     `json:"countries" yaml:"countries"`
	LanguageOfEntity []FacetEntry     `json:"language_of_entity" yaml:"language_of_entity"`
	Links            []Link           `json:"links" yaml:"links"`
	Titles           []FacetEntry     `json:"titles" yaml:"titles"`
	History          []HistoryEvent   `json:"history" yaml:"history"`
	Warnings         []Warning        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Options configures an Extractor.
type Options struct {
	CountryScale ScalePolicy
}

// Extractor runs every facet extractor over a record. It holds no state
// between calls and is safe for concurrent use.
type Extractor struct {
	opts Options
}

// NewExtractor creates an Extractor. A zero CountryScale uses DefaultScalePolicy.
func NewExtractor(opts Options) *Extractor {
	if opts.CountryScale == (ScalePolicy{}) {
		opts.CountryScale = DefaultScalePolicy
	}
	return &Extractor{opts: opts}
}

// Extract builds the Cluster for one record. It fails only when the record
// identifier is missing; damaged occurrences become warnings.
func (e *Extractor) Extract(r Record) (*Cluster, error) {
	basic, err := ExtractBasic(r)
	if err != nil {
		return nil, err
	}

	c := &Cluster{Basic: *basic, Fixed: ExtractFixed(r)}
	var w []Warning

	c.Sources, w = ExtractSources(r)
	c.addWarnings(w)
	c.MainHeading, w = ExtractMainHeading(r)
	c.addWarnings(w)
	c.X400, w = ExtractX400(r)
	c.addWarnings(w)
	c.X500, w = ExtractX500(r)
	c.addWarnings(w)
	c.CoAuthors, w = ExtractCoAuthors(r)
	c.addWarnings(w)
	c.Publishers, w = ExtractPublishers(r)
	c.addWarnings(w)
	c.Dates, w = ExtractDates(r)
	c.addWarnings(w)
	c.RecFormats, w = ExtractRecFormats(r)
	c.addWarnings(w)
	c.RelatorCodes, w = ExtractRelatorCodes(r)
	c.addWarnings(w)
	c.ISBNs, w = ExtractISBNs(r)
	c.addWarnings(w)
	c.Covers, w = ExtractCovers(r)
	c.addWarnings(w)
	c.Countries, w = ExtractCountries(r, e.opts.CountryScale)
	c.addWarnings(w)
	c.LanguageOfEntity, w = ExtractLanguageOfEntity(r)
	c.addWarnings(w)
	c.Links, w = ExtractLinks(r)
	c.addWarnings(w)
	c.Titles, w = ExtractTitles(r)
	c.addWarnings(w)
	c.History, w = ExtractHistory(r)
	c.addWarnings(w)

	if len(c.Warnings) > 0 {
		log := zap.L().With(zap.String("viaf_id", c.Basic.ID))
		for _, warning := range c.Warnings {
			log.Warn("skipped malformed occurrence",
				zap.String("facet", warning.Facet),
				zap.String("detail", warning.Message),
			)
		}
	}
	return c, nil
}

func (c *Cluster) addWarnings(ws []Warning) {
	for _, w := range ws {
		w.Record = c.Basic.ID
		c.Warnings = append(c.Warnings, w)
	}
}
