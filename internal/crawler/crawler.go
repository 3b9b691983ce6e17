package crawler

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sharpsem/internal/extractor"
	"sharpsem/internal/ir"
)

// DefaultIgnored lists directory names skipped while walking.
var DefaultIgnored = []string{".git", ".vs", "bin", "obj", "node_modules", "packages", "testdata"}

// Crawler scans a directory for C# source files and parses them concurrently.
type Crawler struct {
	Logger    *zap.Logger
	extractor *extractor.Extractor
	ignored   []string
	workers   int
}

// NewCrawler creates a new crawler instance.
func NewCrawler(ext *extractor.Extractor) *Crawler {
	return &Crawler{
		Logger:    zap.NewNop(),
		extractor: ext,
		ignored:   DefaultIgnored,
		workers:   runtime.GOMAXPROCS(0),
	}
}

// WithLogger sets the logger.
func (c *Crawler) WithLogger(log *zap.Logger) {
	c.Logger = log.With(zap.String("component", "crawler"))
}

// SetIgnored replaces the directory names skipped while walking.
func (c *Crawler) SetIgnored(dirs []string) { c.ignored = dirs }

// SetWorkers bounds the number of files parsed at once. n < 1 means GOMAXPROCS.
func (c *Crawler) SetWorkers(n int) {
	if n < 1 {
		n = runtime.GOMAXPROCS(0)
	}
	c.workers = n
}

// ScanProject walks root, parses every .cs file and streams the compilation
// units to onUnit in path order. Unit paths are slash-separated and relative to
// root. Files that cannot be read are logged and skipped; an error from onUnit
// stops the scan.
func (c *Crawler) ScanProject(ctx context.Context, root string, onUnit func(*ir.CompilationUnit) error) error {
	paths, err := c.collect(root)
	if err != nil {
		return err
	}

	units := make([]*ir.CompilationUnit, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, path := range paths {
		g.Go(func() error {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			src, err := os.ReadFile(path)
			if err != nil {
				c.Logger.Warn("Skipping unreadable file", zap.String("file", path), zap.Error(err))
				return nil
			}
			unit, err := c.extractor.ExtractFromSource(gctx, filepath.ToSlash(rel), src)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.Logger.Warn("Skipping unparsable file", zap.String("file", path), zap.Error(err))
				return nil
			}
			units[i] = unit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, unit := range units {
		if unit == nil {
			continue
		}
		if len(unit.SyntaxErrors) > 0 {
			c.Logger.Warn("Source has syntax errors",
				zap.String("file", unit.Filepath),
				zap.Int("errors", len(unit.SyntaxErrors)))
		}
		if err := onUnit(unit); err != nil {
			return err
		}
	}
	return nil
}

// collect returns the .cs files under root in lexical order.
func (c *Crawler) collect(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".cs") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return paths, nil
}
