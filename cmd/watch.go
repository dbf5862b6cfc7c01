package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/authority-cli/internal/batch"
	"github.com/sells-group/authority-cli/internal/export"
	"github.com/sells-group/authority-cli/internal/store"
	"github.com/sells-group/authority-cli/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Process search responses as they are written to a directory",
	Long:  "Watches a directory for .xml search responses. Each settled file is processed, stored, and optionally exported next to an --out-dir.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("process"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		outDir, _ := cmd.Flags().GetString("out-dir")
		format, err := export.ParseFormat(cfg.Export.Format)
		if err != nil {
			return err
		}
		settle, _ := cmd.Flags().GetDuration("settle")
		opts := batchOptions(cfg)

		handle := func(ctx context.Context, path string) error {
			raw, err := readInput(path)
			if err != nil {
				return err
			}
			res, err := batch.ProcessRaw(ctx, raw, opts)
			if err != nil {
				return eris.Wrapf(err, "process %s", path)
			}
			run, err := st.SaveRun(ctx, store.RunMeta{
				Source:   filepath.Base(path),
				Version:  res.Version,
				Total:    res.Total,
				Failures: len(res.Failures),
			}, res.Clusters)
			if err != nil {
				return err
			}
			if outDir != "" {
				name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "." + string(format)
				if err := export.WriteFile(filepath.Join(outDir, name), format, res); err != nil {
					return err
				}
			}
			zap.L().Info("processed file",
				zap.String("path", path),
				zap.String("run_id", run.ID),
				zap.Int("clusters", len(res.Clusters)),
				zap.Int("failures", len(res.Failures)),
			)
			return nil
		}

		return watch.New(watch.Options{SettleDelay: settle}).Run(ctx, args[0], handle)
	},
}

func init() {
	watchCmd.Flags().String("out-dir", "", "also export each result into this directory")
	watchCmd.Flags().Duration("settle", watch.DefaultSettleDelay, "quiet period before a file is processed")
	rootCmd.AddCommand(watchCmd)
}
