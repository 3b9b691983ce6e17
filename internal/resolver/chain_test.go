package resolver

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"sharpsem/internal/graph"
	"sharpsem/internal/ir"
)

type fakePass struct {
	name string
	fn   func(g *graph.SemanticGraph, diags *Diagnostics) (PassStats, error)
}

func (f fakePass) Name() string { return f.name }
func (f fakePass) Run(_ context.Context, g *graph.SemanticGraph, diags *Diagnostics) (PassStats, error) {
	return f.fn(g, diags)
}

func TestChain_Run(t *testing.T) {
	g := graph.New()
	c := g.NewClass("C")
	if err := g.Global().AddNestedType(c); err != nil {
		t.Fatal(err)
	}
	first := graph.NewReference[graph.TypeEntity](c, ir.MustParseType("A"), nil)
	second := graph.NewReference[graph.TypeEntity](c, ir.MustParseType("B"), nil)
	_ = c.AddBaseType(first)
	_ = c.AddBaseType(second)

	p1 := fakePass{
		name: "p1",
		fn: func(g *graph.SemanticGraph, diags *Diagnostics) (PassStats, error) {
			first.Fail(graph.ErrNameNotFound("A", c))
			diags.Add(c, first.Err())
			return PassStats{Attempted: 2, Unresolvable: 1, Deferred: 1}, nil
		},
	}
	p2 := fakePass{
		name: "p2",
		fn: func(g *graph.SemanticGraph, diags *Diagnostics) (PassStats, error) {
			second.Fail(graph.ErrNameNotFound("B", c))
			return PassStats{Attempted: 1, Unresolvable: 1}, nil
		},
	}

	chain := NewChain(p1, p2)
	chain.WithLogger(zaptest.NewLogger(t))
	results, err := chain.Run(context.Background(), g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 stage results, got %d", len(results))
	}
	if results[0].Pass != "p1" || results[1].Pass != "p2" {
		t.Fatalf("unexpected pass order: %+v", results)
	}
	if results[0].UnresolvedBefore != 2 || results[0].UnresolvedAfter != 1 {
		t.Fatalf("unexpected unresolved transition for p1: %+v", results[0])
	}
	if results[1].UnresolvedBefore != 1 || results[1].UnresolvedAfter != 0 {
		t.Fatalf("unexpected unresolved transition for p2: %+v", results[1])
	}
	if results[0].Diagnostics.Len() != 1 || results[1].Diagnostics.Len() != 0 {
		t.Fatalf("diagnostics leaked between passes: %d, %d", results[0].Diagnostics.Len(), results[1].Diagnostics.Len())
	}
}

func TestChain_RunStops(t *testing.T) {
	boom := errors.New("boom")
	ran := 0
	failing := fakePass{name: "failing", fn: func(*graph.SemanticGraph, *Diagnostics) (PassStats, error) {
		ran++
		return PassStats{}, boom
	}}
	never := fakePass{name: "never", fn: func(*graph.SemanticGraph, *Diagnostics) (PassStats, error) {
		ran++
		return PassStats{}, nil
	}}

	results, err := NewChain(failing, never).Run(context.Background(), graph.New())
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if ran != 1 || len(results) != 1 || results[0].Err != boom {
		t.Fatalf("chain continued after a failing pass: ran=%d results=%+v", ran, results)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran = 0
	results, err = NewChain(never).Run(ctx, graph.New())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if ran != 0 || len(results) != 0 {
		t.Fatalf("pass ran on a cancelled context")
	}
}

func TestDiagnostics(t *testing.T) {
	g := graph.New()
	c := g.NewClass("C")
	shared := graph.ErrNameNotFound("X", c)

	d := &Diagnostics{}
	d.Add(c, shared)
	d.Add(c, shared)
	d.Add(c, graph.ErrCyclic(c, "C"))
	d.Add(c, nil)

	if d.Len() != 2 {
		t.Fatalf("expected shared errors to be recorded once, got %d", d.Len())
	}
	codes := d.Codes()
	if len(codes) != 2 || codes[0] != graph.CodeCyclicDependency || codes[1] != graph.CodeNameNotFound {
		t.Fatalf("unexpected codes: %v", codes)
	}
	if d.Err() == nil || (&Diagnostics{}).Err() != nil {
		t.Fatalf("Err must be nil exactly when there are no diagnostics")
	}

	var nilDiags *Diagnostics
	if nilDiags.Len() != 0 || nilDiags.Items() != nil {
		t.Fatalf("nil diagnostics must be empty")
	}
}
