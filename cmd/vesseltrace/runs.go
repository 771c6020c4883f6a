package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/vesseltrace/internal/vessel"
	"github.com/banshee-data/vesseltrace/internal/vessel/network"
	"github.com/banshee-data/vesseltrace/internal/vessel/registry"
	"github.com/banshee-data/vesseltrace/internal/vessel/storage/sqlite"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := sqlite.Open(flagDB)
		if err != nil {
			return err
		}
		defer db.Close()

		list, err := sqlite.NewRunStore(db.DB).List()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if flagFormat == "json" {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}
		for _, r := range list {
			parent := r.ParentRunID
			if parent == "" {
				parent = "-"
			}
			fmt.Fprintf(w, "%s  %-9s %s  parent=%s branches=%d areas=%d\n",
				time.Unix(0, r.CreatedAt).UTC().Format(time.RFC3339), r.Kind, r.RunID, parent, r.BranchCount, r.AreaCount)
		}
		return nil
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge <run-id>",
	Short: "Merge overlapping branches of a stored run into a new run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tuning, err := loadTuning()
		if err != nil {
			return err
		}
		return postPass(cmd, args[0], sqlite.KindMerged, func(reg *registry.Registry) *registry.Registry {
			out, report := network.Merge(reg, newAdapter(), network.MergeOptionsFromTuning(tuning))
			vessel.Diagf("merge folded %d branches, dropped %d, pruned %d", report.Folds, report.Dropped, report.Pruned)
			return out
		})
	},
}

var segmentizeCmd = &cobra.Command{
	Use:   "segmentize <run-id>",
	Short: "Split a stored run into unbranched segments, stored as a new run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return postPass(cmd, args[0], sqlite.KindSegmented, func(reg *registry.Registry) *registry.Registry {
			return network.Segmentize(reg, newAdapter())
		})
	},
}

// postPass loads a stored run, transforms it and stores the result as a
// child run.
func postPass(cmd *cobra.Command, runID string, kind sqlite.Kind, pass func(*registry.Registry) *registry.Registry) error {
	db, err := sqlite.Open(flagDB)
	if err != nil {
		return err
	}
	defer db.Close()

	runs := sqlite.NewRunStore(db.DB)
	reg, src, err := runs.Load(runID)
	if err != nil {
		return err
	}
	out := pass(reg)
	run := &sqlite.Run{Kind: kind, ParentRunID: src.RunID, ParamsJSON: src.ParamsJSON}
	if err := runs.Save(run, out); err != nil {
		return fmt.Errorf("save %s run: %w", kind, err)
	}
	return printSummaries(cmd.OutOrStdout(), []runSummary{summarise(out, kind, run.RunID)})
}
