package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"sharpsem/internal/graph"
)

var diagramKinds = map[graph.EntityKind]string{
	graph.KindClass:     "",
	graph.KindStruct:    "<<struct>>",
	graph.KindInterface: "<<interface>>",
	graph.KindEnum:      "<<enumeration>>",
	graph.KindDelegate:  "<<delegate>>",
}

var nonIdent = regexp.MustCompile(`[^A-Za-z0-9_]`)

// ClassDiagram renders the source-declared types below root as a mermaid class
// diagram: inheritance from resolved base types and associations from field
// and property types.
func ClassDiagram(root graph.Entity) string {
	var types []graph.TypeEntity
	ids := make(map[graph.Entity]string)
	graph.Inspect(root, func(e graph.Entity) bool {
		if p := e.Program(); p != nil && p.Imported {
			return false
		}
		if _, ok := diagramKinds[e.Kind()]; ok && e.Template() == nil {
			t := e.(graph.TypeEntity)
			types = append(types, t)
			ids[e] = nonIdent.ReplaceAllString(graph.QualifiedName(e), "_")
		}
		switch e.Kind() {
		case graph.KindNamespace, graph.KindClass, graph.KindStruct, graph.KindInterface:
			return true
		}
		return false
	})

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("classDiagram\n")

	for _, t := range types {
		sb.WriteString(fmt.Sprintf("    class %s[\"%s\"]\n", ids[t], t.DistinctiveName()))
		if stereo := diagramKinds[t.Kind()]; stereo != "" {
			sb.WriteString(fmt.Sprintf("    %s : %s\n", ids[t], stereo))
		}
	}

	for _, t := range types {
		for _, ref := range t.BaseTypes() {
			base, ok := ref.Target()
			if !ok {
				continue
			}
			target, ok := ids[declaration(base)]
			if !ok {
				continue
			}
			arrow := "<|--"
			if base.Kind() == graph.KindInterface && t.Kind() != graph.KindInterface {
				arrow = "<|.."
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", target, arrow, ids[t]))
		}
		for _, m := range t.Members() {
			var ref *graph.Reference[graph.TypeEntity]
			switch m := m.(type) {
			case *graph.FieldEntity:
				ref = m.Type()
			case *graph.PropertyEntity:
				ref = m.Type()
			default:
				continue
			}
			typ, ok := ref.Target()
			if !ok {
				continue
			}
			if target, ok := ids[declaration(typ)]; ok {
				sb.WriteString(fmt.Sprintf("    %s --> %s : %s\n", ids[t], target, m.Name()))
			}
		}
	}

	sb.WriteString("```\n")
	return sb.String()
}

// declaration maps a constructed generic type to the type it was constructed from.
func declaration(e graph.Entity) graph.Entity {
	for e != nil && e.Template() != nil {
		e = e.Template()
	}
	return e
}
