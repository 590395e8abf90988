package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/nameisahmedh/strokeprediction/pkg/model"
	"github.com/nameisahmedh/strokeprediction/pkg/runstore"
	"github.com/spf13/cobra"
)

func newRunsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded train and compare runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listRuns(cmd.OutOrStdout(), limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print one run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showRun(cmd.OutOrStdout(), args[0])
		},
	})
	return cmd
}

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the model names this build supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			writeModels(cmd.OutOrStdout(), model.Default().Entries())
			return nil
		},
	}
}

func (a *app) listRuns(w io.Writer, limit int) error {
	store, err := runstore.Open(a.cfg.RunsDB)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tCOMMAND\tBEST\tF1\tDATA")
	for _, r := range runs {
		best, f1 := bestModel(r)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.4f\t%s\n",
			r.ID, r.Started.Local().Format(time.DateTime), r.Command, best, f1, r.DataPath)
	}
	return tw.Flush()
}

func (a *app) showRun(w io.Writer, id string) error {
	store, err := runstore.Open(a.cfg.RunsDB)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

// bestModel returns the successful model with the highest F1, or "-".
func bestModel(r *runstore.Run) (string, float64) {
	best, f1 := "-", 0.0
	for _, name := range sortedKeys(r.Metrics) {
		m := r.Metrics[name]
		if m.Error == "" && (best == "-" || m.F1 > f1) {
			best, f1 = name, m.F1
		}
	}
	return best, f1
}

func writeModels(w io.Writer, entries []model.Entry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tSTATUS")
	for _, e := range entries {
		status := "available"
		if !e.Enabled() {
			status = "disabled in this build"
		}
		fmt.Fprintf(tw, "%s\t%s\n", e.Kind, status)
	}
	tw.Flush()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
