package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sharpsem/internal/crawler"
	"sharpsem/internal/graph"
	"sharpsem/internal/ir"
)

// Indexer orchestrates crawling a source tree and declaring it in a graph.
type Indexer struct {
	Logger   *zap.Logger
	crawler  *crawler.Crawler
	programs ProgramMap
}

// NewIndexer creates a new indexer.
func NewIndexer(c *crawler.Crawler, programs ProgramMap) *Indexer {
	return &Indexer{
		Logger:   zap.NewNop(),
		crawler:  c,
		programs: programs,
	}
}

// WithLogger sets the logger.
func (i *Indexer) WithLogger(log *zap.Logger) { i.Logger = log }

// Load parses every source file under root.
func (i *Indexer) Load(ctx context.Context, root string) ([]*ir.CompilationUnit, error) {
	var units []*ir.CompilationUnit
	err := i.crawler.ScanProject(ctx, root, func(unit *ir.CompilationUnit) error {
		unit.Program = i.programs.ProgramFor(unit.Filepath)
		units = append(units, unit)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return units, nil
}

// BuildGraph scans root and declares every compilation unit in g.
// References are left unresolved.
func (i *Indexer) BuildGraph(ctx context.Context, root string, g *graph.SemanticGraph) error {
	tr := NewTranslator(g, i.programs)
	tr.WithLogger(i.Logger)
	files := 0
	err := i.crawler.ScanProject(ctx, root, func(unit *ir.CompilationUnit) error {
		files++
		return tr.Translate(unit)
	})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	i.Logger.Info("Indexed source tree", zap.String("root", root), zap.Int("files", files), zap.Int("entities", g.Len()))
	return nil
}
