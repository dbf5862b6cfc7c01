package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/authority-cli/internal/batch"
	"github.com/sells-group/authority-cli/internal/config"
	"github.com/sells-group/authority-cli/internal/export"
	"github.com/sells-group/authority-cli/internal/store"
	"github.com/sells-group/authority-cli/internal/viaf"
)

func scalePolicy(c config.ScaleConfig) viaf.ScalePolicy {
	return viaf.ScalePolicy{Divisor: c.Divisor, Factor: c.Factor}
}

func batchOptions(c *config.Config) batch.Options {
	return batch.Options{
		Concurrency: c.Process.Concurrency,
		Extractor:   viaf.NewExtractor(viaf.Options{CountryScale: scalePolicy(c.Process.CountryScale)}),
	}
}

// initStore opens the configured store and applies migrations.
func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// emit writes res to path, or to stdout when path is empty or "-".
func emit(out io.Writer, path, format string, res *batch.Result) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	if path == "" || path == "-" {
		if f == export.FormatXLSX {
			return eris.New("xlsx output requires --out")
		}
		return export.Write(out, f, res)
	}
	if err := export.WriteFile(path, f, res); err != nil {
		return err
	}
	zap.L().Info("wrote results", zap.String("path", path), zap.String("format", string(f)))
	return nil
}

// saveResult stores a processed document as one run.
func saveResult(ctx context.Context, meta store.RunMeta, res *batch.Result) (*store.Run, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck

	meta.Version = res.Version
	meta.Total = res.Total
	meta.Failures = len(res.Failures)
	run, err := st.SaveRun(ctx, meta, res.Clusters)
	if err != nil {
		return nil, err
	}
	zap.L().Info("saved run",
		zap.String("run_id", run.ID),
		zap.Int("clusters", run.Clusters),
		zap.Int("failures", run.Failures),
	)
	return run, nil
}

func summarize(out io.Writer, res *batch.Result) {
	_, _ = fmt.Fprintf(out, "version %.1f  total %d  extracted %d  failed %d  warnings %d\n",
		res.Version, res.Total, len(res.Clusters), len(res.Failures), len(res.Warnings))
}

func formatRunsList(out io.Writer, runs []store.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSOURCE\tQUERY\tCLUSTERS\tFAILURES\tWARNINGS\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t------\t-----\t--------\t--------\t--------\t-------")

	for _, r := range runs {
		query := truncateText(r.Query, 30)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			truncateID(r.ID),
			r.Source,
			query,
			r.Clusters,
			r.Failures,
			r.Warnings,
			r.CreatedAt.Format(time.DateTime),
		)
	}
	_ = w.Flush()
}

func formatCluster(out io.Writer, sc *store.StoredCluster) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	c := sc.Cluster
	_, _ = fmt.Fprintf(w, "VIAF ID:\t%s\n", sc.ID)
	_, _ = fmt.Fprintf(w, "Name type:\t%s\n", sc.NameType)
	_, _ = fmt.Fprintf(w, "Heading:\t%s\n", sc.Heading)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", sc.RunID)
	_, _ = fmt.Fprintf(w, "Updated:\t%s\n", sc.UpdatedAt.Format(time.DateTime))
	if c != nil {
		codes := make([]string, 0, len(c.Sources))
		for _, s := range c.Sources {
			codes = append(codes, s.Source)
		}
		_, _ = fmt.Fprintf(w, "Sources:\t%s\n", strings.Join(codes, ", "))
		_, _ = fmt.Fprintf(w, "Cross refs:\t%d x400, %d x500\n", len(c.X400), len(c.X500))
		_, _ = fmt.Fprintf(w, "Titles:\t%d\n", len(c.Titles))
		_, _ = fmt.Fprintf(w, "Warnings:\t%d\n", len(c.Warnings))
	}
	_ = w.Flush()
}

// truncateText shortens s to at most limit runes, marking the cut with "...".
func truncateText(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", eris.Wrap(err, "read stdin")
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "read %s", path)
	}
	return string(data), nil
}
