// Package viaf turns VIAF cluster records into normalized, aggregated facets.
package viaf

import (
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/authority-cli/internal/markup"
)

const clusterTag = "VIAFCluster"

// Document is the split form of one search response. It is not modified
// after Split returns.
type Document struct {
	Version float64  `json:"version"`
	Total   int      `json:"total"`
	Records []Record `json:"-"`
}

// Record is a read-only handle on one cluster element of a Document.
type Record struct {
	Index int
	node  *markup.Node
}

// Node exposes the cluster element for callers that need raw access.
func (r Record) Node() *markup.Node {
	return r.node
}

// ParseDocument parses raw search-response XML and splits it into records.
func ParseDocument(raw string) (*Document, error) {
	root, err := markup.Parse(raw)
	if err != nil {
		return nil, eris.Wrap(err, "viaf: parse document")
	}
	return Split(root)
}

// Split reads the response version and total and collects the cluster
// elements in document order. The total is the server-reported hit count and
// is not checked against the number of records returned.
func Split(root *markup.Node) (*Document, error) {
	version, err := documentNumber(root, "version", func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
	if err != nil {
		return nil, err
	}
	total, err := documentNumber(root, "numberOfRecords", strconv.Atoi)
	if err != nil {
		return nil, err
	}

	clusters := root.Descendants(clusterTag)
	doc := &Document{
		Version: version,
		Total:   total,
		Records: make([]Record, 0, len(clusters)),
	}
	for i, c := range clusters {
		doc.Records = append(doc.Records, Record{Index: i, node: c})
	}
	return doc, nil
}

// ParseCluster parses a standalone cluster document such as the one served
// at /viaf/{id}/viaf.xml.
func ParseCluster(raw string) (Record, error) {
	root, err := markup.Parse(raw)
	if err != nil {
		return Record{}, eris.Wrap(err, "viaf: parse cluster")
	}
	if root.Tag == clusterTag {
		return Record{node: root}, nil
	}
	found := root.Descendants(clusterTag)
	if len(found) == 0 {
		return Record{}, &SchemaError{Element: clusterTag, Reason: "not found"}
	}
	return Record{node: found[0]}, nil
}

func documentNumber[T int | float64](root *markup.Node, tag string, parse func(string) (T, error)) (T, error) {
	var zero T
	node := documentElement(root, tag)
	if node == nil {
		return zero, &SchemaError{Element: tag, Reason: "is missing"}
	}
	v, err := parse(node.Text())
	if err != nil {
		return zero, &SchemaError{Element: tag, Reason: "is not numeric: " + strconv.Quote(node.Text())}
	}
	return v, nil
}

// documentElement finds the first element named tag in document order
// without descending into cluster records, so a record field can never
// stand in for a document-level element.
func documentElement(n *markup.Node, tag string) *markup.Node {
	if n.Tag == tag {
		return n
	}
	for _, c := range n.Elements() {
		if c.Tag == clusterTag {
			continue
		}
		if found := documentElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
