package analysis

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"sharpsem/internal/graph"
)

// DumpOptions selects what Dump renders.
type DumpOptions struct {
	// Bodies includes statements, expressions and locals.
	Bodies bool
	// Imported includes types loaded from metadata.
	Imported bool
	// References lists the outgoing references of each entity.
	References bool
}

var bodyKinds = map[graph.EntityKind]bool{
	graph.KindBlock:               true,
	graph.KindLocalDeclaration:    true,
	graph.KindExpressionStatement: true,
	graph.KindReturnStatement:     true,
	graph.KindLocalVariable:       true,
	graph.KindLiteral:             true,
	graph.KindSimpleName:          true,
	graph.KindMemberAccess:        true,
	graph.KindInvocation:          true,
	graph.KindThis:                true,
	graph.KindDefaultValue:        true,
	graph.KindBinary:              true,
	graph.KindAssignment:          true,
}

// Dump renders the entity tree below root.
func Dump(root graph.Entity, opts DumpOptions) string {
	tv := newTreeVisitor(opts)
	graph.Walk(tv, root)
	return tv.root.String()
}

type treeVisitor struct {
	opts  DumpOptions
	root  treeprint.Tree
	trees []treeprint.Tree
}

func newTreeVisitor(opts DumpOptions) *treeVisitor {
	t := treeprint.New()
	return &treeVisitor{opts: opts, root: t, trees: []treeprint.Tree{t}}
}

func (v *treeVisitor) hidden(e graph.Entity) bool {
	if !v.opts.Bodies && bodyKinds[e.Kind()] {
		return true
	}
	if p := e.Program(); !v.opts.Imported && p != nil && p.Imported {
		return true
	}
	return false
}

func (v *treeVisitor) Visit(e graph.Entity) graph.VisitResult {
	top := v.trees[len(v.trees)-1]
	if v.hidden(e) {
		v.trees = append(v.trees, top)
		return graph.SkipChildren
	}

	t := top.AddBranch(label(e))
	v.trees = append(v.trees, t)

	if r, ok := e.(graph.Referencing); ok && v.opts.References {
		for _, info := range r.References() {
			t.AddNode(referenceLabel(info))
		}
	}
	return graph.Continue
}

func (v *treeVisitor) Leave(graph.Entity) {
	v.trees[len(v.trees)-1] = nil
	v.trees = v.trees[:len(v.trees)-1]
}

func label(e graph.Entity) string {
	name := e.DistinctiveName()
	if ns, ok := e.(*graph.NamespaceEntity); ok && ns.IsGlobal() {
		name = "<global>"
	}
	var sb strings.Builder
	sb.WriteString(string(e.Kind()))
	if name != "" {
		sb.WriteString(" ")
		sb.WriteString(name)
	}
	if h, ok := e.(graph.HasAccessibility); ok {
		if a, ok := graph.EffectiveAccessibility(h); ok {
			fmt.Fprintf(&sb, " [%s]", a)
		}
	}
	if p := e.Program(); p != nil && e.Parent() != nil && e.Parent().Program() != p {
		fmt.Fprintf(&sb, " (%s)", p.Name)
	}
	return sb.String()
}

func referenceLabel(info graph.ReferenceInfo) string {
	syntax := ""
	if info.Syntax != nil {
		syntax = info.Syntax.String()
	}
	if info.State == graph.Resolved && info.Target != nil {
		return fmt.Sprintf("%s: %s -> %s", info.Role, syntax, graph.QualifiedName(info.Target))
	}
	return fmt.Sprintf("%s: %s (%s)", info.Role, syntax, info.State)
}
