package resolver

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sharpsem/internal/graph"
)

// PassStats counts what a pass did with the references it visited.
type PassStats struct {
	Attempted    int
	Resolved     int
	Deferred     int
	Unresolvable int
}

func (s *PassStats) record(err error) {
	s.Attempted++
	switch {
	case err == nil:
		s.Resolved++
	case isDeferred(err):
		s.Deferred++
	default:
		s.Unresolvable++
	}
}

// Pass is one resolution pass over the whole graph.
// Recoverable failures go to diags; a returned error aborts the chain.
type Pass interface {
	Name() string
	Run(ctx context.Context, g *graph.SemanticGraph, diags *Diagnostics) (PassStats, error)
}

type StageResult struct {
	Pass             string
	Stats            PassStats
	UnresolvedBefore int
	UnresolvedAfter  int
	Diagnostics      *Diagnostics
	Duration         time.Duration
	Err              error
}

// Chain runs passes in order.
type Chain struct {
	Logger *zap.Logger

	passes []Pass
}

func NewChain(passes ...Pass) *Chain {
	return &Chain{Logger: zap.NewNop(), passes: passes}
}

// NewDefaultChain resolves declarations (pass 1) and then members and bodies (pass 2).
func NewDefaultChain() *Chain {
	return NewChain(NewTypesPass(), NewMembersPass())
}

type loggable interface {
	WithLogger(log *zap.Logger)
}

// WithLogger sets the logger on the chain and on every pass that accepts one.
func (c *Chain) WithLogger(log *zap.Logger) {
	c.Logger = log.With(zap.String("component", "resolver"))
	for _, p := range c.passes {
		if l, ok := p.(loggable); ok {
			l.WithLogger(c.Logger)
		}
	}
}

// Run executes the passes until one fails. The returned error is the failing
// pass's error or the context's; diagnostics never stop the chain.
func (c *Chain) Run(ctx context.Context, g *graph.SemanticGraph) ([]StageResult, error) {
	if g == nil {
		return nil, nil
	}

	var out []StageResult
	for _, p := range c.passes {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		diags := &Diagnostics{}
		before := g.ReferenceStateCounts()[graph.NotYetResolved]
		start := time.Now()
		stats, err := p.Run(ctx, g, diags)
		res := StageResult{
			Pass:             p.Name(),
			Stats:            stats,
			UnresolvedBefore: before,
			UnresolvedAfter:  g.ReferenceStateCounts()[graph.NotYetResolved],
			Diagnostics:      diags,
			Duration:         time.Since(start),
			Err:              err,
		}
		out = append(out, res)

		c.Logger.Info("Resolution pass finished",
			zap.String("pass", res.Pass),
			zap.Int("attempted", stats.Attempted),
			zap.Int("resolved", stats.Resolved),
			zap.Int("deferred", stats.Deferred),
			zap.Int("unresolvable", stats.Unresolvable),
			zap.Int("diagnostics", diags.Len()),
			zap.Duration("duration", res.Duration),
			zap.Error(err))
		if err != nil {
			return out, err
		}
	}
	return out, nil
}
