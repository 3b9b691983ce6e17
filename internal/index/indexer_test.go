package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sharpsem/internal/crawler"
	"sharpsem/internal/extractor"
	"sharpsem/internal/graph"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newIndexer(t *testing.T) *Indexer {
	t.Helper()
	ext, err := extractor.NewExtractor("csharp")
	require.NoError(t, err)
	idx := NewIndexer(crawler.NewCrawler(ext), ProgramMap{
		Default:  "app",
		Prefixes: map[string]string{"lib": "lib"},
	})
	idx.WithLogger(zaptest.NewLogger(t))
	return idx
}

func TestIndexer(t *testing.T) {
	root := writeTree(t, map[string]string{
		"lib/Shape.cs": "namespace Geo { public class Shape { } }\n",
		"app/Main.cs":  "namespace Geo { class Circle : Shape { } }\n",
	})

	t.Run("Load", func(t *testing.T) {
		units, err := newIndexer(t).Load(context.Background(), root)
		require.NoError(t, err)
		require.Len(t, units, 2)
		programs := map[string]string{}
		for _, u := range units {
			programs[filepath.ToSlash(u.Filepath)] = u.Program
		}
		assert.Equal(t, map[string]string{"lib/Shape.cs": "lib", "app/Main.cs": "app"}, programs)
	})

	t.Run("BuildGraph", func(t *testing.T) {
		g := graph.New()
		require.NoError(t, newIndexer(t).BuildGraph(context.Background(), root, g))

		shape := g.LookupQualified("Geo.Shape")
		require.Len(t, shape, 1)
		assert.Equal(t, "lib", shape[0].Program().Name)
		circle := g.LookupQualified("Geo.Circle")
		require.Len(t, circle, 1)
		assert.Equal(t, "app", circle[0].Program().Name)
	})

	t.Run("MissingRoot", func(t *testing.T) {
		_, err := newIndexer(t).Load(context.Background(), filepath.Join(root, "absent"))
		assert.Error(t, err)
	})
}
