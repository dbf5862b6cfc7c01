package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/authority-cli/internal/batch"
	"github.com/sells-group/authority-cli/internal/store"
)

var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Extract clusters from a saved VIAF search response",
	Long:  "Parses an SRU searchRetrieveResponse document (use - for stdin), extracts every cluster, and writes the result as JSON, YAML or XLSX.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("process"); err != nil {
			return err
		}

		raw, err := readInput(args[0])
		if err != nil {
			return err
		}

		res, err := batch.ProcessRaw(ctx, raw, batchOptions(cfg))
		if err != nil {
			return eris.Wrap(err, "process")
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			format = cfg.Export.Format
		}
		out, _ := cmd.Flags().GetString("out")
		if err := emit(os.Stdout, out, format, res); err != nil {
			return err
		}

		if save, _ := cmd.Flags().GetBool("save"); save {
			source := "stdin"
			if args[0] != "-" {
				source = filepath.Base(args[0])
			}
			if _, err := saveResult(ctx, store.RunMeta{Source: source}, res); err != nil {
				return err
			}
		}

		for _, f := range res.Failures {
			zap.L().Warn("record skipped", zap.Int("record", f.Record), zap.String("error", f.Error))
		}
		summarize(os.Stderr, res)
		return nil
	},
}

func init() {
	processCmd.Flags().String("format", "", "output format: json, yaml or xlsx (default from config)")
	processCmd.Flags().String("out", "", "output file (default stdout)")
	processCmd.Flags().Bool("save", false, "store the extracted clusters")
	rootCmd.AddCommand(processCmd)
}
