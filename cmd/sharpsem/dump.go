package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sharpsem/internal/analysis"
	"sharpsem/internal/graph"
	"sharpsem/internal/pipeline"
)

var (
	dumpFrom     string
	dumpBodies   bool
	dumpRefs     bool
	dumpImported bool
	dumpFormat   string
)

var dumpCmd = &cobra.Command{
	Use:   "dump [path]",
	Short: "Print the resolved entity tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(args)
		if err != nil {
			return err
		}
		defer log.Sync()

		p := pipeline.New(pipelineOptions(cfg))
		p.WithLogger(log)
		res, err := p.Run(cmd.Context())
		if err != nil {
			return err
		}

		var root graph.Entity = res.Graph.Global()
		if dumpFrom != "" {
			matches := res.Graph.LookupQualified(dumpFrom)
			if len(matches) == 0 {
				return fmt.Errorf("no entity named %s", dumpFrom)
			}
			root = matches[0]
		}

		switch dumpFormat {
		case "tree":
			opts := analysis.DumpOptions{Bodies: dumpBodies, References: dumpRefs, Imported: dumpImported}
			fmt.Fprint(cmd.OutOrStdout(), analysis.Dump(root, opts))
		case "mermaid":
			fmt.Fprint(cmd.OutOrStdout(), analysis.ClassDiagram(root))
		default:
			return fmt.Errorf("unknown format %q", dumpFormat)
		}
		return nil
	},
}

func init() {
	dumpCmd.Flags().StringVar(&dumpFormat, "format", "tree", "Output format: tree or mermaid")
	dumpCmd.Flags().StringVar(&dumpFrom, "from", "", "Start at this qualified name")
	dumpCmd.Flags().BoolVar(&dumpBodies, "bodies", false, "Include statements and expressions")
	dumpCmd.Flags().BoolVar(&dumpRefs, "refs", false, "List outgoing references")
	dumpCmd.Flags().BoolVar(&dumpImported, "imported", false, "Include types imported from metadata")
}
