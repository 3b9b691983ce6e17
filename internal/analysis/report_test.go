package analysis

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharpsem/internal/graph"
)

func TestNewReport(t *testing.T) {
	g, stages := resolvedGraph(t, map[string]string{"App.cs": appSource})
	r := NewReport(g, stages)

	t.Run("Counts entities and references", func(t *testing.T) {
		assert.GreaterOrEqual(t, r.Entities["class"], 2)
		assert.Equal(t, g.KindCounts()[graph.KindField], r.Entities["field"])
		assert.Equal(t, 1, r.References["unresolvable"])
		assert.Positive(t, r.References["resolved"])
	})

	t.Run("Summarizes each pass", func(t *testing.T) {
		require.Len(t, r.Passes, 2)
		for i, st := range stages {
			assert.Equal(t, st.Pass, r.Passes[i].Name)
			assert.Equal(t, st.Stats.Attempted, r.Passes[i].Attempted)
		}
	})

	t.Run("Lists diagnostics with their location", func(t *testing.T) {
		assert.True(t, r.HasErrors())
		assert.Equal(t, map[string]int{string(graph.CodeNameNotFound): 1}, r.Diagnostics)
		require.Len(t, r.Findings, 1)
		assert.Equal(t, "App.cs", r.Findings[0].Location.Filepath)
		assert.Equal(t, 6, r.Findings[0].Location.StartLine)
		assert.Contains(t, r.Findings[0].Message, "Missing")
	})

	t.Run("Write renders text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.Write(&buf))
		out := buf.String()
		assert.Contains(t, out, "Entities:")
		assert.Contains(t, out, "NAME_NOT_FOUND")
		assert.Contains(t, out, "App.cs:6:")
	})
}

func TestNewReport_Clean(t *testing.T) {
	g, stages := resolvedGraph(t, map[string]string{"A.cs": "namespace N { class A { int x; } }"})
	r := NewReport(g, stages)
	assert.False(t, r.HasErrors())

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))
	assert.Contains(t, buf.String(), "No diagnostics.")
}
