package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sharpsem/internal/ir"
	"sharpsem/internal/storage"
)

var entitiesCmd = &cobra.Command{
	Use:   "entities <file | id>",
	Short: "List the stored entities of a source file, or show one entity by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(nil)
		if err != nil {
			return err
		}
		defer log.Sync()

		store, err := storage.NewSQLiteStore(cfg.Storage.DB)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer store.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		if id, err := strconv.ParseUint(args[0], 10, 64); err == nil {
			e, err := store.GetEntity(ctx, id)
			if err != nil {
				return err
			}
			printEntity(cmd, e)
			if e.ParentID != 0 {
				if parent, err := store.GetEntity(ctx, e.ParentID); err == nil {
					fmt.Fprintf(out, "  in %s %s\n", parent.Kind, parent.QualifiedName)
				}
			}
			return nil
		}

		records, err := store.FindEntitiesByFile(ctx, args[0])
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintf(out, "No entities stored for %s\n", args[0])
			return nil
		}
		for _, e := range records {
			printEntity(cmd, e)
		}
		return nil
	},
}

func printEntity(cmd *cobra.Command, e ir.EntityRecord) {
	acc := e.Accessibility
	if acc == "" {
		acc = "-"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%6d  %-16s %-18s %s:%d\n", e.ID, e.Kind, acc, e.QualifiedName, e.Evidence.StartLine)
}
