package export

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/authority-cli/internal/batch"
	"github.com/sells-group/authority-cli/internal/viaf"
)

// Sheet names of the exported workbook.
const (
	SheetClusters = "clusters"
	SheetFacets   = "facets"
)

var clusterHeader = []string{
	"viaf_id", "name_type", "heading", "birth_date", "death_date",
	"sources", "x400s", "x500s", "titles", "date_min", "date_max", "warnings",
}

var facetHeader = []string{
	"viaf_id", "facet", "text", "count", "sources", "holdings", "scaled", "token", "id",
}

func writeXLSX(w io.Writer, res *batch.Result) error {
	f := xlsx.NewFile()

	clusters, err := f.AddSheet(SheetClusters)
	if err != nil {
		return eris.Wrap(err, "export: add clusters sheet")
	}
	facets, err := f.AddSheet(SheetFacets)
	if err != nil {
		return eris.Wrap(err, "export: add facets sheet")
	}

	addStrings(clusters.AddRow(), clusterHeader...)
	addStrings(facets.AddRow(), facetHeader...)

	for _, c := range res.Clusters {
		writeClusterRow(clusters.AddRow(), c)
		for _, ff := range facetTables(c) {
			for _, e := range ff.entries {
				writeFacetRow(facets.AddRow(), c.Basic.ID, ff.name, e)
			}
		}
	}

	return eris.Wrap(f.Write(w), "export: write xlsx")
}

func writeClusterRow(row *xlsx.Row, c *viaf.Cluster) {
	codes := make([]string, 0, len(c.Sources))
	for _, s := range c.Sources {
		codes = append(codes, s.Source)
	}
	addStrings(row,
		c.Basic.ID,
		string(c.Basic.NameType),
		c.MainHeading.Heading,
		deref(c.Basic.BirthDate),
		deref(c.Basic.DeathDate),
		strings.Join(codes, ","),
	)
	row.AddCell().SetInt(len(c.X400))
	row.AddCell().SetInt(len(c.X500))
	row.AddCell().SetInt(len(c.Titles))
	addOptionalInt(row, c.Dates.Min)
	addOptionalInt(row, c.Dates.Max)
	row.AddCell().SetInt(len(c.Warnings))
}

func writeFacetRow(row *xlsx.Row, id, facet string, e viaf.FacetEntry) {
	addStrings(row, id, facet, e.Text)
	row.AddCell().SetInt(e.Count)
	addStrings(row, strings.Join(e.Sources, ","))
	row.AddCell().SetInt(e.Holdings)
	if e.Scaled != nil {
		row.AddCell().SetFloat(*e.Scaled)
	} else {
		row.AddCell().SetString("")
	}
	addStrings(row, deref(e.Token), e.ID)
}

type facetTable struct {
	name    string
	entries []viaf.FacetEntry
}

func facetTables(c *viaf.Cluster) []facetTable {
	return []facetTable{
		{viaf.FacetCoAuthors, c.CoAuthors},
		{viaf.FacetPublishers, c.Publishers},
		{"dates", c.Dates.Entries},
		{viaf.FacetRecFormats, c.RecFormats},
		{viaf.FacetRelatorCodes, c.RelatorCodes},
		{viaf.FacetISBNs, c.ISBNs},
		{viaf.FacetCovers, c.Covers},
		{viaf.FacetCountries, c.Countries},
		{viaf.FacetLanguageOfEntity, c.LanguageOfEntity},
		{"titles", c.Titles},
	}
}

func addStrings(row *xlsx.Row, values ...string) {
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addOptionalInt(row *xlsx.Row, v *int) {
	if v == nil {
		row.AddCell().SetString("")
		return
	}
	row.AddCell().SetInt(*v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
