package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sharpsem/internal/extractor"
	"sharpsem/internal/graph"
	"sharpsem/internal/index"
	"sharpsem/internal/ir"
	"sharpsem/internal/metadata"
	"sharpsem/internal/resolver"
)

const appSource = `namespace App
{
    public class Store
    {
        public int Count;
        public Missing Broken;
    }

    internal class Client
    {
        private Store store;
        public int Read() { return store.Count; }
    }
}
`

// resolvedGraph extracts, translates and resolves the given sources.
func resolvedGraph(t *testing.T, files map[string]string) (*graph.SemanticGraph, []resolver.StageResult) {
	t.Helper()
	ext, err := extractor.NewExtractor("csharp")
	require.NoError(t, err)

	var units []*ir.CompilationUnit
	for path, src := range files {
		unit, err := ext.ExtractFromSource(context.Background(), path, []byte(src))
		require.NoError(t, err)
		units = append(units, unit)
	}

	g := graph.New()
	cat, err := metadata.DefaultCatalog()
	require.NoError(t, err)
	require.NoError(t, metadata.New(g, cat).Import())
	require.NoError(t, index.NewTranslator(g, index.ProgramMap{}).TranslateAll(units))

	chain := resolver.NewDefaultChain()
	chain.WithLogger(zaptest.NewLogger(t))
	stages, err := chain.Run(context.Background(), g)
	require.NoError(t, err)
	return g, stages
}

func findEntity(t *testing.T, g *graph.SemanticGraph, qualified string) graph.Entity {
	t.Helper()
	var found graph.Entity
	graph.Inspect(g.Global(), func(e graph.Entity) bool {
		if found == nil && graph.QualifiedName(e) == qualified {
			found = e
		}
		return found == nil
	})
	require.NotNil(t, found, qualified)
	return found
}
