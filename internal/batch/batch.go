// Package batch runs cluster extraction over every record of a search
// result document.
package batch

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/authority-cli/internal/viaf"
)

// DefaultConcurrency is used when Options.Concurrency is not positive.
const DefaultConcurrency = 4

// Options configures a Process call.
type Options struct {
	Concurrency int
	Extractor   *viaf.Extractor
}

// Failure records a record that could not be extracted.
type Failure struct {
	Record int    `json:"record" yaml:"record"`
	Field  string `json:"field,omitempty" yaml:"field,omitempty"`
	Error  string `json:"error" yaml:"error"`
}

// Result is the outcome of processing one document. Clusters keep document
// order; failed records are left out of Clusters and listed in Failures.
type Result struct {
	Version  float64         `json:"version" yaml:"version"`
	Total    int             `json:"total" yaml:"total"`
	Clusters []*viaf.Cluster `json:"clusters" yaml:"clusters"`
	Failures []Failure       `json:"failures" yaml:"failures"`
	Warnings []viaf.Warning  `json:"warnings" yaml:"warnings"`
}

// ProcessRaw parses a search result document and processes it.
func ProcessRaw(ctx context.Context, raw string, opts Options) (*Result, error) {
	doc, err := viaf.ParseDocument(raw)
	if err != nil {
		return nil, eris.Wrap(err, "batch: parse document")
	}
	return Process(ctx, doc, opts)
}

// Process extracts every record of doc concurrently. A record that fails
// extraction is recorded in Result.Failures and does not stop the others.
// Cancelling ctx stops further records from being scheduled; records
// already running finish and the partial result is returned with the
// context error.
func Process(ctx context.Context, doc *viaf.Document, opts Options) (*Result, error) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	ex := opts.Extractor
	if ex == nil {
		ex = viaf.NewExtractor(viaf.Options{})
	}

	zap.L().Info("processing records",
		zap.Int("records", len(doc.Records)),
		zap.Int("concurrency", concurrency),
	)

	clusters := make([]*viaf.Cluster, len(doc.Records))
	errs := make([]error, len(doc.Records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64
	scheduled := 0

	for i, rec := range doc.Records {
		if gctx.Err() != nil {
			break
		}
		scheduled++
		g.Go(func() error {
			c, err := ex.Extract(rec)
			if err != nil {
				failed.Add(1)
				errs[i] = err
				zap.L().Warn("record extraction failed", zap.Int("record", rec.Index), zap.Error(err))
				return nil // one bad record never aborts the rest
			}
			succeeded.Add(1)
			clusters[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch: process")
	}

	res := &Result{
		Version:  doc.Version,
		Total:    doc.Total,
		Clusters: make([]*viaf.Cluster, 0, len(doc.Records)),
		Failures: make([]Failure, 0),
		Warnings: make([]viaf.Warning, 0),
	}
	for i := 0; i < scheduled; i++ {
		if errs[i] != nil {
			res.Failures = append(res.Failures, newFailure(doc.Records[i].Index, errs[i]))
			continue
		}
		if c := clusters[i]; c != nil {
			res.Clusters = append(res.Clusters, c)
			res.Warnings = append(res.Warnings, c.Warnings...)
		}
	}

	zap.L().Info("processing complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Int("warnings", len(res.Warnings)),
	)

	if err := ctx.Err(); err != nil {
		return res, eris.Wrap(err, "batch: process cancelled")
	}
	return res, nil
}

func newFailure(record int, err error) Failure {
	f := Failure{Record: record, Error: err.Error()}
	var mErr *viaf.MissingFieldError
	if errors.As(err, &mErr) {
		f.Field = mErr.Field
	}
	return f
}
