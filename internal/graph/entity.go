package graph

import (
	"strings"

	"sharpsem/internal/ir"
)

// EntityID addresses an entity in the graph arena.
type EntityID uint64

type EntityKind string

const (
	KindNamespace      EntityKind = "namespace"
	KindUsingNamespace EntityKind = "using_namespace"
	KindUsingAlias     EntityKind = "using_alias"
	KindExternAlias    EntityKind = "extern_alias"

	KindBuiltInType   EntityKind = "built_in_type"
	KindClass         EntityKind = "class"
	KindStruct        EntityKind = "struct"
	KindInterface     EntityKind = "interface"
	KindEnum          EntityKind = "enum"
	KindDelegate      EntityKind = "delegate"
	KindTypeParameter EntityKind = "type_parameter"
	KindArrayType     EntityKind = "array_type"
	KindPointerType   EntityKind = "pointer_type"
	KindNullableType  EntityKind = "nullable_type"

	KindField       EntityKind = "field"
	KindConstant    EntityKind = "constant"
	KindMethod      EntityKind = "method"
	KindConstructor EntityKind = "constructor"
	KindProperty    EntityKind = "property"
	KindEvent       EntityKind = "event"
	KindAccessor    EntityKind = "accessor"
	KindEnumMember  EntityKind = "enum_member"
	KindParameter   EntityKind = "parameter"

	KindBlock               EntityKind = "block"
	KindLocalDeclaration    EntityKind = "local_declaration"
	KindExpressionStatement EntityKind = "expression_statement"
	KindReturnStatement     EntityKind = "return_statement"
	KindLocalVariable       EntityKind = "local_variable"

	KindLiteral      EntityKind = "literal"
	KindSimpleName   EntityKind = "simple_name"
	KindMemberAccess EntityKind = "member_access"
	KindInvocation   EntityKind = "invocation"
	KindThis         EntityKind = "this"
	KindDefaultValue EntityKind = "default_value"
	KindBinary       EntityKind = "binary"
	KindAssignment   EntityKind = "assignment"
)

// Entity is a node of the semantic graph.
//
// Parent is a non-owning back-reference; children are owned by the collection
// of their container. Callers that move an entity must remove it from its old
// container before adding it to the new one.
type Entity interface {
	ID() EntityID
	Kind() EntityKind
	Name() string
	DistinctiveName() string
	Parent() Entity
	Graph() *SemanticGraph
	SyntaxNodes() []ir.Node
	AddSyntaxNode(n ir.Node)
	Program() *Program
	SetProgram(p *Program)
	TypeParameterMap() *TypeParameterMap
	Template() Entity
	Children() []Entity

	setParent(p Entity)
	base() *entityBase
}

type entityBase struct {
	id       EntityID
	graph    *SemanticGraph
	self     Entity
	name     string
	parent   Entity
	syntax   []ir.Node
	program  *Program
	typeMap  *TypeParameterMap
	template Entity

	// instances caches generic instantiations of this entity, bucketed by map hash.
	instances map[uint64][]Entity
}

func (b *entityBase) ID() EntityID            { return b.id }
func (b *entityBase) Name() string            { return b.name }
func (b *entityBase) DistinctiveName() string { return b.name }
func (b *entityBase) Parent() Entity          { return b.parent }
func (b *entityBase) Graph() *SemanticGraph   { return b.graph }
func (b *entityBase) Template() Entity        { return b.template }
func (b *entityBase) Children() []Entity      { return nil }
func (b *entityBase) setParent(p Entity)      { b.parent = p }
func (b *entityBase) base() *entityBase       { return b }

func (b *entityBase) SyntaxNodes() []ir.Node {
	out := make([]ir.Node, len(b.syntax))
	copy(out, b.syntax)
	return out
}

func (b *entityBase) AddSyntaxNode(n ir.Node) {
	if n != nil {
		b.syntax = append(b.syntax, n)
	}
}

// Program returns the program the entity was declared in, inheriting from the parent chain.
func (b *entityBase) Program() *Program {
	if b.program != nil {
		return b.program
	}
	if b.parent != nil {
		return b.parent.Program()
	}
	return nil
}

func (b *entityBase) SetProgram(p *Program) { b.program = p }

// TypeParameterMap is never nil; entities that are not generic instances return an empty map.
func (b *entityBase) TypeParameterMap() *TypeParameterMap {
	if b.typeMap == nil {
		b.typeMap = NewTypeParameterMap()
	}
	return b.typeMap
}

func firstSyntax(nodes []ir.Node) ir.Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Location returns the source location of the first originating syntax node.
func Location(e Entity) ir.Evidence {
	if e == nil {
		return ir.Evidence{}
	}
	if n := firstSyntax(e.base().syntax); n != nil {
		return n.Location()
	}
	if t := e.Template(); t != nil {
		return Location(t)
	}
	return ir.Evidence{}
}

// OriginalDefinition follows template links back to the declared entity.
func OriginalDefinition(e Entity) Entity {
	for e != nil && e.Template() != nil {
		e = e.Template()
	}
	return e
}

// IsConstructed reports whether the entity was produced by generic instantiation.
func IsConstructed(e Entity) bool {
	return e != nil && e.Template() != nil
}

// EnclosingType returns the nearest type strictly containing e.
func EnclosingType(e Entity) TypeEntity {
	if e == nil {
		return nil
	}
	for p := e.Parent(); p != nil; p = p.Parent() {
		if t, ok := p.(TypeEntity); ok {
			return t
		}
	}
	return nil
}

// EnclosingNamespace returns the nearest namespace containing e.
func EnclosingNamespace(e Entity) *NamespaceEntity {
	if e == nil {
		return nil
	}
	for p := e.Parent(); p != nil; p = p.Parent() {
		if ns, ok := p.(*NamespaceEntity); ok {
			return ns
		}
	}
	return nil
}

// EnclosingMember returns the nearest method, property, event or accessor containing e (or e itself).
func EnclosingMember(e Entity) MemberEntity {
	for ; e != nil; e = e.Parent() {
		if m, ok := e.(MemberEntity); ok {
			return m
		}
	}
	return nil
}

// IsAncestor reports whether anc is e or one of e's parents.
func IsAncestor(anc, e Entity) bool {
	for ; e != nil; e = e.Parent() {
		if e == anc {
			return true
		}
	}
	return false
}

// QualifiedName renders a dotted, human-readable name for the entity.
func QualifiedName(e Entity) string {
	if e == nil {
		return ""
	}
	switch t := e.(type) {
	case *BuiltInTypeEntity:
		return t.Keyword()
	case *ArrayTypeEntity:
		return QualifiedName(t.ElementType()) + rankSuffix(t.Rank())
	case *PointerTypeEntity:
		return QualifiedName(t.UnderlyingType()) + "*"
	case *NullableTypeEntity:
		return QualifiedName(t.UnderlyingType()) + "?"
	case *TypeParameterEntity:
		return t.Name()
	case *NamespaceEntity:
		if t.IsGlobal() {
			return "global"
		}
	}

	name := displayName(e)
	p := e.Parent()
	if p == nil {
		return name
	}
	switch pt := p.(type) {
	case *NamespaceEntity:
		if pt.IsGlobal() {
			return name
		}
		return QualifiedName(pt) + "." + name
	case TypeEntity, MemberEntity:
		return QualifiedName(pt) + "." + name
	}
	return name
}

// displayName is the entity's name with generic arguments or parameters appended.
func displayName(e Entity) string {
	tmpl := OriginalDefinition(e)
	tp, ok := tmpl.(CanHaveTypeParameters)
	if !ok {
		return e.Name()
	}
	params := tp.declaredTypeParameters()
	if len(params) == 0 {
		return e.Name()
	}
	m := e.TypeParameterMap()
	args := make([]string, 0, len(params))
	for _, p := range params {
		if a, ok := m.Get(p); ok && a != nil {
			args = append(args, QualifiedName(a))
			continue
		}
		args = append(args, p.Name())
	}
	return e.Name() + "<" + strings.Join(args, ",") + ">"
}

func rankSuffix(rank int) string {
	if rank < 1 {
		rank = 1
	}
	return "[" + strings.Repeat(",", rank-1) + "]"
}
