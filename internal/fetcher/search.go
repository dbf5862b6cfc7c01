package fetcher

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// maxResponseBytes caps a single search response.
const maxResponseBytes = 64 << 20

// DefaultIndex is the CQL index searched when none is given.
const DefaultIndex = "mainHeadingEl"

// CQL builds an "all words" CQL clause over a local VIAF index, e.g.
// local.mainHeadingEl all "Jack Kerouac, 1922-1969".
func CQL(index, term string) string {
	if index == "" {
		index = DefaultIndex
	}
	term = strings.ReplaceAll(strings.TrimSpace(term), `"`, `\"`)
	return "local." + index + ` all "` + term + `"`
}

// SearchURL builds the SRU search request for a CQL query. An empty sortKey
// leaves ordering to the server and maxRecords <= 0 uses the server default.
func SearchURL(base, query, sortKey string, maxRecords int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: parse base url")
	}
	if u.Scheme == "" || u.Host == "" {
		return "", eris.Errorf("fetcher: base url %q is not absolute", base)
	}
	if strings.TrimSpace(query) == "" {
		return "", eris.New("fetcher: empty query")
	}

	q := u.Query()
	q.Set("query", query)
	q.Set("httpAccept", "application/xml")
	if sortKey != "" {
		q.Set("sortKeys", sortKey)
	}
	if maxRecords > 0 {
		q.Set("maximumRecords", strconv.Itoa(maxRecords))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// SearchOptions configures a SearchClient.
type SearchOptions struct {
	BaseURL    string
	SortKey    string
	MaxRecords int
}

// SearchClient runs SRU searches and returns the raw response document.
type SearchClient struct {
	fetcher Fetcher
	opts    SearchOptions
}

// NewSearchClient creates a SearchClient on top of f.
func NewSearchClient(f Fetcher, opts SearchOptions) *SearchClient {
	return &SearchClient{fetcher: f, opts: opts}
}

// Search runs a CQL query and returns the response XML.
func (c *SearchClient) Search(ctx context.Context, query string) (string, error) {
	target, err := SearchURL(c.opts.BaseURL, query, c.opts.SortKey, c.opts.MaxRecords)
	if err != nil {
		return "", err
	}

	log := zap.L().With(zap.String("query", query))
	log.Debug("searching", zap.String("url", target))

	body, err := c.fetcher.Download(ctx, target)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: search")
	}
	defer body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(body, maxResponseBytes))
	if err != nil {
		return "", eris.Wrap(err, "fetcher: read search response")
	}
	log.Info("search complete", zap.Int("bytes", len(raw)))
	return string(raw), nil
}

// SearchToFile runs a CQL query and writes the response to path.
func (c *SearchClient) SearchToFile(ctx context.Context, query, path string) (int64, error) {
	target, err := SearchURL(c.opts.BaseURL, query, c.opts.SortKey, c.opts.MaxRecords)
	if err != nil {
		return 0, err
	}
	n, err := c.fetcher.DownloadToFile(ctx, target, path)
	if err != nil {
		return n, eris.Wrap(err, "fetcher: search to file")
	}
	return n, nil
}
