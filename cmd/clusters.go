package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/authority-cli/internal/store"
)

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "Inspect stored clusters and runs",
}

var clustersGetCmd = &cobra.Command{
	Use:   "get <viaf-id>",
	Short: "Show a stored cluster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sc, err := st.GetCluster(ctx, args[0])
		if errors.Is(err, store.ErrNotFound) {
			return eris.Errorf("cluster %s not found", args[0])
		}
		if err != nil {
			return eris.Wrap(err, "clusters get")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(sc)
		}
		formatCluster(os.Stdout, sc)
		return nil
	},
}

var clustersRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List processing runs, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := st.ListRuns(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "clusters runs")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

func init() {
	clustersGetCmd.Flags().Bool("json", false, "print the full cluster as JSON")
	clustersRunsCmd.Flags().Int("limit", 20, "maximum runs to list")

	clustersCmd.AddCommand(clustersGetCmd, clustersRunsCmd)
	rootCmd.AddCommand(clustersCmd)
}
