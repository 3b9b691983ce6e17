package graph

// StatementEntity is a statement inside a body.
type StatementEntity interface {
	Entity
	isStatement()
}

type statementBase struct {
	entityBase
}

func (s *statementBase) isStatement() {}

// BlockStatement is `{ ... }`. It owns the declaration space of the locals declared in it.
type BlockStatement struct {
	statementBase
	space      *DeclarationSpace
	statements []StatementEntity
}

func (g *SemanticGraph) NewBlock() *BlockStatement {
	b := &BlockStatement{}
	g.register(b, "")
	return b
}

func (b *BlockStatement) Kind() EntityKind { return KindBlock }

func (b *BlockStatement) DeclarationSpace() *DeclarationSpace {
	if b.space == nil {
		b.space = NewDeclarationSpace()
	}
	return b.space
}

func (b *BlockStatement) Statements() []StatementEntity {
	out := make([]StatementEntity, len(b.statements))
	copy(out, b.statements)
	return out
}

func (b *BlockStatement) AddStatement(s StatementEntity) error {
	if s.Parent() != nil {
		return ErrInvariant(s, "statement already has a parent")
	}
	s.setParent(b)
	b.statements = append(b.statements, s)
	return nil
}

func (b *BlockStatement) Children() []Entity {
	out := make([]Entity, 0, len(b.statements))
	for _, s := range b.statements {
		out = append(out, s)
	}
	return out
}

// LocalDeclarationStatement is `T a = x, b;` or `var a = x;` (nil type).
type LocalDeclarationStatement struct {
	statementBase
	typ       *Reference[TypeEntity]
	variables []*LocalVariableEntity
}

func (g *SemanticGraph) NewLocalDeclaration() *LocalDeclarationStatement {
	l := &LocalDeclarationStatement{}
	g.register(l, "")
	return l
}

func (l *LocalDeclarationStatement) Kind() EntityKind { return KindLocalDeclaration }

// Type is the declared type, or nil for an implicitly typed declaration.
func (l *LocalDeclarationStatement) Type() *Reference[TypeEntity]     { return l.typ }
func (l *LocalDeclarationStatement) SetType(r *Reference[TypeEntity]) { l.typ = r }

func (l *LocalDeclarationStatement) Variables() []*LocalVariableEntity {
	out := make([]*LocalVariableEntity, len(l.variables))
	copy(out, l.variables)
	return out
}

// AddVariable declares v in the nearest enclosing block. The statement must
// already be attached to a block.
func (l *LocalDeclarationStatement) AddVariable(v *LocalVariableEntity) error {
	var block *BlockStatement
	for p := l.parent; p != nil; p = p.Parent() {
		if b, ok := p.(*BlockStatement); ok {
			block = b
			break
		}
	}
	if block == nil {
		return ErrInvariant(v, "local variable "+v.Name()+" has no enclosing block")
	}
	v.setParent(l)
	l.variables = append(l.variables, v)
	block.DeclarationSpace().Define(v)
	return nil
}

func (l *LocalDeclarationStatement) Children() []Entity {
	out := make([]Entity, 0, len(l.variables))
	for _, v := range l.variables {
		out = append(out, v)
	}
	return out
}

func (l *LocalDeclarationStatement) References() []ReferenceInfo {
	var c refCollector
	collect(&c, "type", l.typ)
	return c
}

// LocalVariableEntity is one declarator of a local declaration.
type LocalVariableEntity struct {
	entityBase
	typ         *Reference[TypeEntity]
	initializer ExpressionEntity
}

func (g *SemanticGraph) NewLocalVariable(name string) *LocalVariableEntity {
	v := &LocalVariableEntity{}
	g.register(v, name)
	return v
}

func (v *LocalVariableEntity) Kind() EntityKind                 { return KindLocalVariable }
func (v *LocalVariableEntity) Type() *Reference[TypeEntity]     { return v.typ }
func (v *LocalVariableEntity) SetType(r *Reference[TypeEntity]) { v.typ = r }
func (v *LocalVariableEntity) Initializer() ExpressionEntity    { return v.initializer }

func (v *LocalVariableEntity) SetInitializer(e ExpressionEntity) {
	e.setParent(v)
	v.initializer = e
}

func (v *LocalVariableEntity) Children() []Entity {
	if v.initializer == nil {
		return nil
	}
	return []Entity{v.initializer}
}

func (v *LocalVariableEntity) References() []ReferenceInfo {
	var c refCollector
	collect(&c, "type", v.typ)
	return c
}

// ExpressionStatement is an expression evaluated for its effect.
type ExpressionStatement struct {
	statementBase
	expr ExpressionEntity
}

func (g *SemanticGraph) NewExpressionStatement(e ExpressionEntity) *ExpressionStatement {
	s := &ExpressionStatement{expr: e}
	g.register(s, "")
	e.setParent(s)
	return s
}

func (s *ExpressionStatement) Kind() EntityKind             { return KindExpressionStatement }
func (s *ExpressionStatement) Expression() ExpressionEntity { return s.expr }
func (s *ExpressionStatement) Children() []Entity           { return []Entity{s.expr} }

// ReturnStatement is `return;` or `return x;`.
type ReturnStatement struct {
	statementBase
	expr ExpressionEntity
}

func (g *SemanticGraph) NewReturn(e ExpressionEntity) *ReturnStatement {
	s := &ReturnStatement{expr: e}
	g.register(s, "")
	if e != nil {
		e.setParent(s)
	}
	return s
}

func (s *ReturnStatement) Kind() EntityKind             { return KindReturnStatement }
func (s *ReturnStatement) Expression() ExpressionEntity { return s.expr }

func (s *ReturnStatement) Children() []Entity {
	if s.expr == nil {
		return nil
	}
	return []Entity{s.expr}
}
