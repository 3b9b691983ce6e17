package graph

// ExpressionEntity is an expression. Result is the reference to its type; it
// stays NotYetResolved until an evaluator is bound to it.
type ExpressionEntity interface {
	Entity
	Result() *Reference[TypeEntity]
	isExpression()
}

type expressionBase struct {
	entityBase
	result *Reference[TypeEntity]
}

func (x *expressionBase) isExpression() {}

func (x *expressionBase) Result() *Reference[TypeEntity] {
	if x.result == nil {
		x.result = NewReference[TypeEntity](x.self, firstSyntax(x.syntax), nil)
	}
	return x.result
}

func (x *expressionBase) References() []ReferenceInfo {
	var c refCollector
	collect(&c, "result", x.result)
	return c
}

func (x *expressionBase) adopt(children ...ExpressionEntity) {
	for _, c := range children {
		if c != nil {
			c.setParent(x.self)
		}
	}
}

type LiteralExpression struct {
	expressionBase
	literal string
	text    string
}

func (g *SemanticGraph) NewLiteral(literal, text string) *LiteralExpression {
	l := &LiteralExpression{literal: literal, text: text}
	g.register(l, text)
	return l
}

func (l *LiteralExpression) Kind() EntityKind { return KindLiteral }

// LiteralKind is one of integer, real, string, char, boolean, null.
func (l *LiteralExpression) LiteralKind() string { return l.literal }
func (l *LiteralExpression) Text() string        { return l.text }

// SimpleNameExpression is an identifier, optionally with type arguments.
type SimpleNameExpression struct {
	expressionBase
	typeArgs []*Reference[TypeEntity]
	referent *Reference[Entity]
}

func (g *SemanticGraph) NewSimpleName(name string) *SimpleNameExpression {
	s := &SimpleNameExpression{}
	g.register(s, name)
	return s
}

func (s *SimpleNameExpression) Kind() EntityKind { return KindSimpleName }

func (s *SimpleNameExpression) TypeArguments() []*Reference[TypeEntity] { return s.typeArgs }
func (s *SimpleNameExpression) AddTypeArgument(r *Reference[TypeEntity]) {
	s.typeArgs = append(s.typeArgs, r)
}

// Referent is the entity the name binds to: a local, parameter, member, type or namespace.
func (s *SimpleNameExpression) Referent() *Reference[Entity] {
	if s.referent == nil {
		s.referent = NewReference[Entity](s, firstSyntax(s.syntax), nil)
	}
	return s.referent
}

func (s *SimpleNameExpression) References() []ReferenceInfo {
	c := refCollector(s.expressionBase.References())
	collect(&c, "referent", s.referent)
	return c
}

// MemberAccessExpression is `target.Name`.
type MemberAccessExpression struct {
	expressionBase
	target   ExpressionEntity
	typeArgs []*Reference[TypeEntity]
	referent *Reference[Entity]
}

func (g *SemanticGraph) NewMemberAccess(target ExpressionEntity, name string) *MemberAccessExpression {
	m := &MemberAccessExpression{target: target}
	g.register(m, name)
	m.adopt(target)
	return m
}

func (m *MemberAccessExpression) Kind() EntityKind         { return KindMemberAccess }
func (m *MemberAccessExpression) Target() ExpressionEntity { return m.target }
func (m *MemberAccessExpression) Children() []Entity       { return []Entity{m.target} }

func (m *MemberAccessExpression) TypeArguments() []*Reference[TypeEntity] { return m.typeArgs }
func (m *MemberAccessExpression) AddTypeArgument(r *Reference[TypeEntity]) {
	m.typeArgs = append(m.typeArgs, r)
}

// Referent is the member, nested type or namespace the access binds to.
func (m *MemberAccessExpression) Referent() *Reference[Entity] {
	if m.referent == nil {
		m.referent = NewReference[Entity](m, firstSyntax(m.syntax), nil)
	}
	return m.referent
}

func (m *MemberAccessExpression) References() []ReferenceInfo {
	c := refCollector(m.expressionBase.References())
	collect(&c, "referent", m.referent)
	return c
}

// InvocationExpression is `target(args...)`.
type InvocationExpression struct {
	expressionBase
	target ExpressionEntity
	args   []ExpressionEntity
	method *Reference[*MethodEntity]
}

func (g *SemanticGraph) NewInvocation(target ExpressionEntity, args ...ExpressionEntity) *InvocationExpression {
	i := &InvocationExpression{target: target, args: args}
	g.register(i, "")
	i.adopt(target)
	i.adopt(args...)
	return i
}

func (i *InvocationExpression) Kind() EntityKind         { return KindInvocation }
func (i *InvocationExpression) Target() ExpressionEntity { return i.target }

func (i *InvocationExpression) Arguments() []ExpressionEntity {
	out := make([]ExpressionEntity, len(i.args))
	copy(out, i.args)
	return out
}

// Method is the invoked method.
func (i *InvocationExpression) Method() *Reference[*MethodEntity] {
	if i.method == nil {
		i.method = NewReference[*MethodEntity](i, firstSyntax(i.syntax), nil)
	}
	return i.method
}

func (i *InvocationExpression) Children() []Entity {
	out := make([]Entity, 0, len(i.args)+1)
	out = append(out, i.target)
	for _, a := range i.args {
		out = append(out, a)
	}
	return out
}

func (i *InvocationExpression) References() []ReferenceInfo {
	c := refCollector(i.expressionBase.References())
	collect(&c, "method", i.method)
	return c
}

type ThisExpression struct {
	expressionBase
}

func (g *SemanticGraph) NewThis() *ThisExpression {
	t := &ThisExpression{}
	g.register(t, "this")
	return t
}

func (t *ThisExpression) Kind() EntityKind { return KindThis }

// DefaultValueExpression is `default(T)`.
type DefaultValueExpression struct {
	expressionBase
	typ *Reference[TypeEntity]
}

func (g *SemanticGraph) NewDefaultValue() *DefaultValueExpression {
	d := &DefaultValueExpression{}
	g.register(d, "default")
	return d
}

func (d *DefaultValueExpression) Kind() EntityKind                 { return KindDefaultValue }
func (d *DefaultValueExpression) Type() *Reference[TypeEntity]     { return d.typ }
func (d *DefaultValueExpression) SetType(r *Reference[TypeEntity]) { d.typ = r }

func (d *DefaultValueExpression) References() []ReferenceInfo {
	c := refCollector(d.expressionBase.References())
	collect(&c, "type", d.typ)
	return c
}

// BinaryExpression is `left op right`.
type BinaryExpression struct {
	expressionBase
	op          string
	left, right ExpressionEntity
}

func (g *SemanticGraph) NewBinary(op string, left, right ExpressionEntity) *BinaryExpression {
	b := &BinaryExpression{op: op, left: left, right: right}
	g.register(b, op)
	b.adopt(left, right)
	return b
}

func (b *BinaryExpression) Kind() EntityKind        { return KindBinary }
func (b *BinaryExpression) Operator() string        { return b.op }
func (b *BinaryExpression) Left() ExpressionEntity  { return b.left }
func (b *BinaryExpression) Right() ExpressionEntity { return b.right }
func (b *BinaryExpression) Children() []Entity      { return []Entity{b.left, b.right} }

// AssignmentExpression is `left = right` (or a compound assignment).
type AssignmentExpression struct {
	expressionBase
	op          string
	left, right ExpressionEntity
}

func (g *SemanticGraph) NewAssignment(op string, left, right ExpressionEntity) *AssignmentExpression {
	a := &AssignmentExpression{op: op, left: left, right: right}
	g.register(a, op)
	a.adopt(left, right)
	return a
}

func (a *AssignmentExpression) Kind() EntityKind        { return KindAssignment }
func (a *AssignmentExpression) Operator() string        { return a.op }
func (a *AssignmentExpression) Left() ExpressionEntity  { return a.left }
func (a *AssignmentExpression) Right() ExpressionEntity { return a.right }
func (a *AssignmentExpression) Children() []Entity      { return []Entity{a.left, a.right} }
