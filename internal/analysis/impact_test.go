package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharpsem/internal/git"
	"sharpsem/internal/graph"
	"sharpsem/internal/ir"
)

func record(id, parent, template uint64, kind, name, file string, start, end int) ir.EntityRecord {
	return ir.EntityRecord{
		ID: id, ParentID: parent, TemplateID: template, Kind: kind, Name: name,
		DistinctiveName: name, QualifiedName: name,
		Evidence: ir.Evidence{Filepath: file, StartLine: start, EndLine: end},
	}
}

func names(es []ir.EntityRecord) []string {
	var out []string
	for _, e := range es {
		out = append(out, e.Name)
	}
	return out
}

func TestAnalyzer_AnalyzeImpact(t *testing.T) {
	snap := ir.GraphSnapshot{
		Entities: []ir.EntityRecord{
			record(1, 0, 0, "namespace", "N", "", 0, 0),
			record(2, 1, 0, "class", "Box", "box.cs", 1, 10),
			record(3, 2, 0, "method", "Put", "box.cs", 3, 5),
			record(4, 2, 0, "method", "Take", "box.cs", 6, 9),
			record(5, 1, 0, "class", "User", "user.cs", 1, 20),
			record(6, 5, 0, "method", "Run", "user.cs", 2, 8),
			record(7, 6, 0, "block", "", "user.cs", 2, 8),
			record(8, 7, 0, "invocation", "Put", "user.cs", 4, 4),
			record(9, 5, 0, "field", "box", "user.cs", 10, 10),
			record(10, 1, 2, "class", "Box", "box.cs", 1, 10),
			record(11, 5, 0, "field", "stale", "user.cs", 12, 12),
			record(12, 1, 0, "class", "Caller", "caller.cs", 1, 5),
			record(13, 12, 0, "method", "Go", "caller.cs", 2, 4),
			record(14, 13, 0, "invocation", "Run", "caller.cs", 3, 3),
		},
		References: []ir.ReferenceRecord{
			{FromID: 8, ToID: 3, Role: "method", State: "resolved"},
			{FromID: 9, ToID: 10, Role: "type", State: "resolved"},
			{FromID: 11, ToID: 3, Role: "type", State: "unresolvable"},
			{FromID: 14, ToID: 6, Role: "method", State: "resolved"},
		},
	}
	a := NewAnalyzer(snap, DefaultImpactConfig())

	t.Run("Changed lines select declarations and their dependents", func(t *testing.T) {
		report := a.AnalyzeImpact([]git.ChangedFile{{Path: "box.cs", Lines: []int{4}}})
		assert.Equal(t, []string{"Box", "Put"}, names(report.DirectlyAffected))
		// Run calls Put; box has the constructed Box type.
		assert.Equal(t, []string{"Run", "box"}, names(report.IndirectlyAffected))
	})

	t.Run("Further hops follow dependents of dependents", func(t *testing.T) {
		report := NewAnalyzer(snap, ImpactConfig{MaxHops: 2}).AnalyzeImpact([]git.ChangedFile{{Path: "box.cs", Lines: []int{4}}})
		assert.Equal(t, []string{"Run", "box", "Go"}, names(report.IndirectlyAffected))
		assert.Equal(t, map[uint64]int{6: 1, 9: 1, 13: 2}, report.Hops)
	})

	t.Run("Role filter", func(t *testing.T) {
		cfg := ImpactConfig{MaxHops: 1, Roles: map[string]bool{"method": true}}
		report := NewAnalyzer(snap, cfg).AnalyzeImpact([]git.ChangedFile{{Path: "box.cs", Lines: []int{4}}})
		assert.Equal(t, []string{"Run"}, names(report.IndirectlyAffected))
	})

	t.Run("Zero hops", func(t *testing.T) {
		report := NewAnalyzer(snap, ImpactConfig{}).AnalyzeImpact([]git.ChangedFile{{Path: "box.cs", Lines: []int{4}}})
		assert.Len(t, report.DirectlyAffected, 2)
		assert.Empty(t, report.IndirectlyAffected)
	})

	t.Run("Whole-file changes", func(t *testing.T) {
		report := a.AnalyzeImpact([]git.ChangedFile{{Path: "box.cs", Deleted: true}})
		assert.Equal(t, []string{"Box", "Put", "Take"}, names(report.DirectlyAffected))
	})

	t.Run("Unrelated lines", func(t *testing.T) {
		report := a.AnalyzeImpact([]git.ChangedFile{{Path: "box.cs", Lines: []int{20}}, {Path: "other.cs"}})
		assert.Empty(t, report.DirectlyAffected)
		assert.Empty(t, report.IndirectlyAffected)
	})
}

func TestAnalyzer_ResolvedGraph(t *testing.T) {
	g, _ := resolvedGraph(t, map[string]string{"App.cs": appSource})
	a := NewAnalyzer(graph.Snapshot(g), DefaultImpactConfig())

	report := a.AnalyzeImpact([]git.ChangedFile{{Path: "App.cs", Lines: []int{5}}})
	require.Equal(t, []string{"Store", "Count"}, names(report.DirectlyAffected))
	assert.ElementsMatch(t, []string{"store", "Read"}, names(report.IndirectlyAffected))
}
