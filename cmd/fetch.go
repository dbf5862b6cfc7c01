package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/authority-cli/internal/batch"
	"github.com/sells-group/authority-cli/internal/fetcher"
	"github.com/sells-group/authority-cli/internal/store"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <term>",
	Short: "Search VIAF and extract the returned clusters",
	Long:  "Runs an SRU search against VIAF and processes the response. With --raw the response document is written unprocessed.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("fetch"); err != nil {
			return err
		}

		query, _ := cmd.Flags().GetString("cql")
		if query == "" {
			index, _ := cmd.Flags().GetString("index")
			query = fetcher.CQL(index, strings.Join(args, " "))
		}
		maxRecords, _ := cmd.Flags().GetInt("max")

		client := fetcher.NewSearchClient(newHTTPFetcher(), fetcher.SearchOptions{
			BaseURL:    cfg.Fetch.BaseURL,
			SortKey:    cfg.Fetch.SortKey,
			MaxRecords: maxRecords,
		})

		out, _ := cmd.Flags().GetString("out")
		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			if out == "" || out == "-" {
				doc, err := client.Search(ctx, query)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(os.Stdout, doc)
				return err
			}
			n, err := client.SearchToFile(ctx, query, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote %d bytes to %s\n", n, out)
			return nil
		}

		doc, err := client.Search(ctx, query)
		if err != nil {
			return err
		}
		res, err := batch.ProcessRaw(ctx, doc, batchOptions(cfg))
		if err != nil {
			return eris.Wrap(err, "fetch")
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			format = cfg.Export.Format
		}
		if err := emit(os.Stdout, out, format, res); err != nil {
			return err
		}

		if save, _ := cmd.Flags().GetBool("save"); save {
			if _, err := saveResult(ctx, store.RunMeta{Source: "viaf", Query: query}, res); err != nil {
				return err
			}
		}

		summarize(os.Stderr, res)
		return nil
	},
}

func newHTTPFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:         cfg.Fetch.UserAgent,
		Timeout:           time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:        cfg.Fetch.Retries,
		RequestsPerSecond: cfg.Fetch.RateLimit,
	})
}

func init() {
	fetchCmd.Flags().String("index", fetcher.DefaultIndex, "VIAF search index for the term")
	fetchCmd.Flags().String("cql", "", "raw CQL query (overrides term and --index)")
	fetchCmd.Flags().Int("max", 10, "maximum records to request")
	fetchCmd.Flags().Bool("raw", false, "write the response XML without processing")
	fetchCmd.Flags().String("format", "", "output format: json, yaml or xlsx (default from config)")
	fetchCmd.Flags().String("out", "", "output file (default stdout)")
	fetchCmd.Flags().Bool("save", false, "store the extracted clusters")
	rootCmd.AddCommand(fetchCmd)
}
