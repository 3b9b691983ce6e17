package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sharpsem/internal/analysis"
	"sharpsem/internal/logger"
	"sharpsem/internal/pipeline"
	"sharpsem/internal/storage"
)

var (
	jsonPath string
	sinceRef string
	noStore  bool
	strict   bool
	hops     int
)

var errDiagnostics = errors.New("analysis reported diagnostics")

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Resolve a source tree, report diagnostics and store the snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(args)
		if err != nil {
			return err
		}
		defer log.Sync()
		ctx := logger.NewContextWithLogger(cmd.Context(), log)

		opts := pipelineOptions(cfg)
		opts.BaseRef = sinceRef
		if hops > 0 {
			opts.ImpactHops = hops
		}
		if !noStore {
			store, err := storage.NewSQLiteStore(cfg.Storage.DB)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer store.Close()
			opts.Store = store
		}

		p := pipeline.New(opts)
		p.WithLogger(logger.FromContext(ctx))
		res, err := p.Run(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if err := res.Report.Write(out); err != nil {
			return err
		}
		if res.Impact != nil {
			fmt.Fprintf(out, "Changed files: %d\n", len(res.Changes))
			fmt.Fprintf(out, "  -> %d declarations directly affected\n", len(res.Impact.DirectlyAffected))
			fmt.Fprintf(out, "  -> %d declarations indirectly affected (dependents)\n", len(res.Impact.IndirectlyAffected))
			for _, e := range res.Impact.IndirectlyAffected {
				fmt.Fprintf(out, "     %s %s (hop %d)\n", e.Kind, e.QualifiedName, res.Impact.Hops[e.ID])
			}
		}

		if jsonPath != "" {
			f, err := os.Create(jsonPath)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := analysis.ExportJSON(f, res.Snapshot); err != nil {
				return fmt.Errorf("failed to export snapshot: %w", err)
			}
		}

		if strict && res.Report.HasErrors() {
			return errDiagnostics
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&jsonPath, "json", "", "Write the snapshot as JSON to this file")
	analyzeCmd.Flags().StringVar(&sinceRef, "since", "", "Compute changes with git diff against this ref")
	analyzeCmd.Flags().BoolVar(&noStore, "no-store", false, "Do not read or write the snapshot database")
	analyzeCmd.Flags().IntVar(&hops, "hops", 0, "Follow dependents of changed declarations this many levels; overrides analysis.impact_hops")
	analyzeCmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when diagnostics were reported")
}
