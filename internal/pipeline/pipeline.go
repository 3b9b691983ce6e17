package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"sharpsem/internal/analysis"
	"sharpsem/internal/crawler"
	"sharpsem/internal/extractor"
	"sharpsem/internal/git"
	"sharpsem/internal/graph"
	"sharpsem/internal/index"
	"sharpsem/internal/ir"
	"sharpsem/internal/metadata"
	"sharpsem/internal/resolver"
	"sharpsem/internal/storage"
)

// Options configures one analysis run.
type Options struct {
	Root     string
	Programs index.ProgramMap
	// Ignore names directories skipped in addition to crawler.DefaultIgnored.
	Ignore  []string
	Workers int
	// Catalog is a core-library catalog file; empty uses the embedded catalog.
	Catalog     string
	PassTimeout time.Duration
	// Store receives the snapshot; nil skips persistence.
	Store storage.Store
	// BaseRef computes changes with git diff instead of stored checksums.
	BaseRef string
	// ImpactHops bounds how far dependents of changed declarations are
	// followed; zero uses analysis.DefaultImpactConfig.
	ImpactHops int
}

// Result is everything a run produced.
type Result struct {
	Graph    *graph.SemanticGraph
	Units    []*ir.CompilationUnit
	Stages   []resolver.StageResult
	Report   *analysis.Report
	Snapshot ir.GraphSnapshot
	// Changes lists the files that differ from the previous run. It is nil on
	// a first run.
	Changes []git.ChangedFile
	Impact  *analysis.ImpactReport
}

// Pipeline runs load → translate → resolve → report → persist.
type Pipeline struct {
	Logger *zap.Logger
	base   *zap.Logger
	opts   Options
}

func New(opts Options) *Pipeline {
	if opts.Root == "" {
		opts.Root = "."
	}
	return &Pipeline{Logger: zap.NewNop(), base: zap.NewNop(), opts: opts}
}

// WithLogger sets the logger on the pipeline and the components it builds.
func (p *Pipeline) WithLogger(log *zap.Logger) {
	p.base = log
	p.Logger = log.With(zap.String("component", "pipeline"))
}

func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}

	units, err := p.loadStage(ctx)
	if err != nil {
		return nil, err
	}
	res.Units = units

	g, err := p.translateStage(units)
	if err != nil {
		return nil, err
	}
	res.Graph = g

	stages, err := p.resolveStage(ctx, g)
	res.Stages = stages
	if err != nil {
		return res, err
	}

	changes, err := p.detectChangesStage(ctx, units)
	if err != nil {
		return res, err
	}
	res.Changes = changes

	p.reportStage(res)

	if err := p.persistStage(ctx, res); err != nil {
		return res, err
	}

	p.Logger.Info("Analysis finished",
		zap.Int("files", len(units)),
		zap.Int("entities", g.Len()),
		zap.Int("diagnostics", len(res.Report.Findings)),
		zap.Duration("duration", time.Since(start)))
	return res, nil
}

func (p *Pipeline) loadStage(ctx context.Context) ([]*ir.CompilationUnit, error) {
	ext, err := extractor.NewExtractor("csharp")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create extractor")
	}
	cr := crawler.NewCrawler(ext)
	cr.WithLogger(p.base)
	cr.SetIgnored(append(append([]string{}, crawler.DefaultIgnored...), p.opts.Ignore...))
	if p.opts.Workers > 0 {
		cr.SetWorkers(p.opts.Workers)
	}

	idx := index.NewIndexer(cr, p.opts.Programs)
	idx.WithLogger(p.base)
	units, err := idx.Load(ctx, p.opts.Root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", p.opts.Root)
	}
	return units, nil
}

func (p *Pipeline) translateStage(units []*ir.CompilationUnit) (*graph.SemanticGraph, error) {
	cat, err := metadata.DefaultCatalog()
	if p.opts.Catalog != "" {
		cat, err = metadata.LoadCatalog(p.opts.Catalog)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load metadata catalog")
	}

	g := graph.New()
	provider := metadata.New(g, cat)
	provider.WithLogger(p.base)
	if err := provider.Import(); err != nil {
		return nil, errors.Wrap(err, "failed to import metadata")
	}

	tr := index.NewTranslator(g, p.opts.Programs)
	tr.WithLogger(p.base)
	if err := tr.TranslateAll(units); err != nil {
		return nil, err
	}
	p.Logger.Info("Translated compilation units", zap.Int("files", len(units)), zap.Int("entities", g.Len()))
	return g, nil
}

func (p *Pipeline) resolveStage(ctx context.Context, g *graph.SemanticGraph) ([]resolver.StageResult, error) {
	if p.opts.PassTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.PassTimeout)
		defer cancel()
	}
	chain := resolver.NewDefaultChain()
	chain.WithLogger(p.base)
	stages, err := chain.Run(ctx, g)
	if err != nil {
		return stages, errors.Wrap(err, "resolution failed")
	}
	return stages, nil
}

// detectChangesStage compares the run with the previous one, either through
// git or through the source checksums recorded in the store.
func (p *Pipeline) detectChangesStage(ctx context.Context, units []*ir.CompilationUnit) ([]git.ChangedFile, error) {
	if p.opts.BaseRef != "" {
		changes, err := git.Diff(ctx, p.opts.Root, p.opts.BaseRef)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to diff against %s", p.opts.BaseRef)
		}
		return changes, nil
	}
	if p.opts.Store == nil {
		return nil, nil
	}
	previous, err := p.opts.Store.LoadSources(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load recorded sources")
	}
	if len(previous) == 0 {
		return nil, nil
	}
	return changedSources(previous, units), nil
}

func changedSources(previous map[string]storage.SourceFile, units []*ir.CompilationUnit) []git.ChangedFile {
	changes := []git.ChangedFile{}
	current := make(map[string]bool, len(units))
	for _, u := range units {
		current[u.Filepath] = true
		if old, ok := previous[u.Filepath]; !ok || old.Checksum != u.Checksum {
			changes = append(changes, git.ChangedFile{Path: u.Filepath})
		}
	}
	for path := range previous {
		if !current[path] {
			changes = append(changes, git.ChangedFile{Path: path, Deleted: true})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}

func (p *Pipeline) reportStage(res *Result) {
	res.Snapshot = graph.Snapshot(res.Graph)
	res.Report = analysis.NewReport(res.Graph, res.Stages)
	for _, f := range res.Report.Findings {
		p.Logger.Debug("Diagnostic",
			zap.String("code", f.Code),
			zap.String("file", f.Location.Filepath),
			zap.Int("line", f.Location.StartLine),
			zap.String("message", f.Message))
	}

	if len(res.Changes) == 0 {
		return
	}
	cfg := analysis.DefaultImpactConfig()
	if p.opts.ImpactHops > 0 {
		cfg.MaxHops = p.opts.ImpactHops
	}
	res.Impact = analysis.NewAnalyzer(res.Snapshot, cfg).AnalyzeImpact(res.Changes)
	p.Logger.Info("Analyzed impact",
		zap.Int("changed_files", len(res.Changes)),
		zap.Int("directly_affected", len(res.Impact.DirectlyAffected)),
		zap.Int("indirectly_affected", len(res.Impact.IndirectlyAffected)))
}

func (p *Pipeline) persistStage(ctx context.Context, res *Result) error {
	if p.opts.Store == nil {
		return nil
	}
	if err := p.opts.Store.SaveSnapshot(ctx, res.Snapshot); err != nil {
		return errors.Wrap(err, "failed to save snapshot")
	}

	sources := make([]storage.SourceFile, 0, len(res.Units))
	for _, u := range res.Units {
		sources = append(sources, storage.SourceFile{
			Filepath:     u.Filepath,
			Program:      u.Program,
			Checksum:     u.Checksum,
			SyntaxErrors: len(u.SyntaxErrors),
		})
	}
	if err := p.opts.Store.SaveSources(ctx, sources); err != nil {
		return errors.Wrap(err, "failed to save sources")
	}
	p.Logger.Info("Saved snapshot", zap.String("checksum", res.Snapshot.Checksum), zap.Int("entities", len(res.Snapshot.Entities)))
	return nil
}
