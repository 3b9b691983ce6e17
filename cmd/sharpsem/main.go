package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sharpsem/internal/config"
	"sharpsem/internal/index"
	"sharpsem/internal/logger"
	"sharpsem/internal/pipeline"
)

var (
	rootCmd = &cobra.Command{
		Use:           "sharpsem",
		Short:         "Semantic analysis for C# source trees",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	configPath string
	dbPath     string
	logLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the configuration file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the snapshot database (SQLite); overrides storage.db")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level; overrides log.level")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(entitiesCmd)
}

// setup loads the configuration, applies flag overrides and builds the logger.
func setup(args []string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if len(args) > 0 {
		cfg.Project.Root = args[0]
	}
	if dbPath != "" {
		cfg.Storage.DB = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err := logger.New(os.Stderr, cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func pipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		Root: cfg.Project.Root,
		Programs: index.ProgramMap{
			Default:  cfg.Project.DefaultProgram,
			Prefixes: cfg.ProgramPrefixes(),
		},
		Ignore:      cfg.Project.Ignore,
		Workers:     cfg.Analysis.Workers,
		Catalog:     cfg.Analysis.Catalog,
		PassTimeout: cfg.Analysis.PassTimeout,
		ImpactHops:  cfg.Analysis.ImpactHops,
	}
}
