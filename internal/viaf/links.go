package viaf

import (
	"net/url"
	"strings"
)

const facetLinks = "xLinks"

// LinkTypeOther marks a link to an unrecognized site.
const LinkTypeOther = "OTHER"

// linkTypes maps host suffixes to short link type codes.
var linkTypes = []struct {
	suffix string
	code   string
}{
	{"wikipedia.org", "WKP"},
	{"wikidata.org", "WKD"},
	{"dbpedia.org", "DBP"},
	{"isni.org", "ISNI"},
	{"orcid.org", "ORCID"},
	{"id.loc.gov", "LC"},
	{"d-nb.info", "DNB"},
	{"data.bnf.fr", "BNF"},
	{"catalogue.bnf.fr", "BNF"},
}

// Link is an external link with the sources that reference it.
type Link struct {
	URL     string   `json:"url" yaml:"url"`
	Type    string   `json:"type" yaml:"type"`
	Count   int      `json:"count" yaml:"count"`
	Sources []string `json:"sources" yaml:"sources"`
}

// ExtractLinks groups the external links of a cluster by destination URL.
func ExtractLinks(r Record) ([]Link, []Warning) {
	links := make([]Link, 0)
	block := r.node.Child(facetLinks)
	if block == nil {
		return links, nil
	}

	var occs []Occurrence
	for i, x := range block.Children("xLink") {
		href := x.Text()
		codes := sourceCodes(x)
		if len(codes) == 0 {
			occs = append(occs, Occurrence{Text: href, Element: i})
			continue
		}
		for _, code := range codes {
			occs = append(occs, Occurrence{Source: code, Text: href, Element: i})
		}
	}

	entries, warnings := Aggregate(facetLinks, occs, ExactKey, nil)
	for _, e := range entries {
		links = append(links, Link{
			URL:     e.Text,
			Type:    ClassifyLink(e.Text),
			Count:   e.Count,
			Sources: e.Sources,
		})
	}
	return links, warnings
}

// ClassifyLink returns the short type code for a link's host, or LinkTypeOther.
func ClassifyLink(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return LinkTypeOther
	}
	host := strings.ToLower(u.Hostname())
	for _, lt := range linkTypes {
		if host == lt.suffix || strings.HasSuffix(host, "."+lt.suffix) {
			return lt.code
		}
	}
	return LinkTypeOther
}
