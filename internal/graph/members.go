package graph

// Modifiers is a set of declaration modifier flags other than accessibility.
type Modifiers uint16

const (
	ModStatic Modifiers = 1 << iota
	ModVirtual
	ModOverride
	ModNew
	ModAbstract
	ModSealed
	ModReadonly
	ModPartial
	ModExtern
	ModUnsafe
	ModConst
	ModAsync
)

var modifierKeywords = map[string]Modifiers{
	"static":   ModStatic,
	"virtual":  ModVirtual,
	"override": ModOverride,
	"new":      ModNew,
	"abstract": ModAbstract,
	"sealed":   ModSealed,
	"readonly": ModReadonly,
	"partial":  ModPartial,
	"extern":   ModExtern,
	"unsafe":   ModUnsafe,
	"const":    ModConst,
	"async":    ModAsync,
}

// ModifiersOf collects the flags named by keywords; accessibility keywords are ignored.
func ModifiersOf(keywords []string) Modifiers {
	var m Modifiers
	for _, k := range keywords {
		m |= modifierKeywords[k]
	}
	return m
}

func (m Modifiers) Has(f Modifiers) bool { return m&f == f }

// MemberEntity is a member of a type.
type MemberEntity interface {
	HasAccessibility
	Modifiers() Modifiers
	SetModifiers(m Modifiers)
	isMember()
}

// HasBody is implemented by members with executable code.
type HasBody interface {
	Entity
	Body() *BlockStatement
	SetBody(b *BlockStatement) error
}

// HasType is implemented by entities with a single declared type.
type HasType interface {
	Entity
	Type() *Reference[TypeEntity]
}

type memberBase struct {
	entityBase
	accessibilityHolder
	modifiers Modifiers
}

func (m *memberBase) Modifiers() Modifiers     { return m.modifiers }
func (m *memberBase) SetModifiers(f Modifiers) { m.modifiers = f }
func (m *memberBase) IsStatic() bool           { return m.modifiers.Has(ModStatic) }
func (m *memberBase) isMember()                {}

func (m *memberBase) cloneShell() memberBase {
	return memberBase{accessibilityHolder: m.accessibilityHolder, modifiers: m.modifiers}
}

type FieldEntity struct {
	memberBase
	typ *Reference[TypeEntity]
}

func (g *SemanticGraph) NewField(name string) *FieldEntity {
	f := &FieldEntity{}
	g.register(f, name)
	return f
}

func (f *FieldEntity) Kind() EntityKind                 { return KindField }
func (f *FieldEntity) Type() *Reference[TypeEntity]     { return f.typ }
func (f *FieldEntity) SetType(r *Reference[TypeEntity]) { f.typ = r }
func (f *FieldEntity) shallowClone() Entity             { return &FieldEntity{memberBase: f.cloneShell()} }

func (f *FieldEntity) populate(tmpl Entity, m *TypeParameterMap) {
	f.typ = MapTypeReference(tmpl.(*FieldEntity).typ, f, m)
}

func (f *FieldEntity) References() []ReferenceInfo {
	var c refCollector
	collect(&c, "type", f.typ)
	return c
}

type ConstantEntity struct {
	memberBase
	typ   *Reference[TypeEntity]
	value string
}

func (g *SemanticGraph) NewConstant(name, value string) *ConstantEntity {
	c := &ConstantEntity{value: value}
	g.register(c, name)
	return c
}

func (c *ConstantEntity) Kind() EntityKind                 { return KindConstant }
func (c *ConstantEntity) Type() *Reference[TypeEntity]     { return c.typ }
func (c *ConstantEntity) SetType(r *Reference[TypeEntity]) { c.typ = r }
func (c *ConstantEntity) Value() string                    { return c.value }

func (c *ConstantEntity) shallowClone() Entity {
	return &ConstantEntity{memberBase: c.cloneShell(), value: c.value}
}

func (c *ConstantEntity) populate(tmpl Entity, m *TypeParameterMap) {
	c.typ = MapTypeReference(tmpl.(*ConstantEntity).typ, c, m)
}

func (c *ConstantEntity) References() []ReferenceInfo {
	var rc refCollector
	collect(&rc, "type", c.typ)
	return rc
}

// MethodEntity is a method or, when IsConstructor, an instance or static constructor.
type MethodEntity struct {
	memberBase
	constructor       bool
	returnType        *Reference[TypeEntity]
	typeParams        []*TypeParameterEntity
	params            []*ParameterEntity
	explicitInterface *Reference[TypeEntity]
	body              *BlockStatement
	space             *DeclarationSpace
}

func (g *SemanticGraph) NewMethod(name string) *MethodEntity {
	m := &MethodEntity{}
	g.register(m, name)
	return m
}

func (g *SemanticGraph) NewConstructor(name string) *MethodEntity {
	m := &MethodEntity{constructor: true}
	g.register(m, name)
	return m
}

func (m *MethodEntity) Kind() EntityKind {
	if m.constructor {
		return KindConstructor
	}
	return KindMethod
}

func (m *MethodEntity) IsConstructor() bool                          { return m.constructor }
func (m *MethodEntity) ReturnType() *Reference[TypeEntity]           { return m.returnType }
func (m *MethodEntity) SetReturnType(r *Reference[TypeEntity])       { m.returnType = r }
func (m *MethodEntity) ExplicitInterface() *Reference[TypeEntity]    { return m.explicitInterface }
func (m *MethodEntity) SetExplicitInterface(r *Reference[TypeEntity]) { m.explicitInterface = r }
func (m *MethodEntity) Body() *BlockStatement                        { return m.body }

// Type is the return type.
func (m *MethodEntity) Type() *Reference[TypeEntity] { return m.returnType }

func (m *MethodEntity) SetBody(b *BlockStatement) error {
	if m.template != nil {
		return errInvalidOperation(m, "set a body")
	}
	if b.Parent() != nil {
		return ErrInvariant(b, "body already has a parent")
	}
	b.setParent(m)
	m.body = b
	return nil
}

func (m *MethodEntity) TypeParameters() ([]*TypeParameterEntity, error) {
	if m.template != nil {
		return nil, errInvalidOperation(m, "query type parameters")
	}
	return m.declaredTypeParameters(), nil
}

func (m *MethodEntity) AddTypeParameter(tp *TypeParameterEntity) error {
	if m.template != nil {
		return errInvalidOperation(m, "add a type parameter")
	}
	tp.setParent(m)
	m.typeParams = append(m.typeParams, tp)
	return nil
}

func (m *MethodEntity) declaredTypeParameters() []*TypeParameterEntity {
	out := make([]*TypeParameterEntity, len(m.typeParams))
	copy(out, m.typeParams)
	return out
}

func (m *MethodEntity) Parameters() []*ParameterEntity {
	out := make([]*ParameterEntity, len(m.params))
	copy(out, m.params)
	return out
}

// AddParameter must be called before the method is added to its type,
// since parameters are part of the distinctive name.
func (m *MethodEntity) AddParameter(p *ParameterEntity) error {
	if m.template != nil {
		return errInvalidOperation(m, "add a parameter")
	}
	p.setParent(m)
	m.params = append(m.params, p)
	m.DeclarationSpace().Define(p)
	return nil
}

// DeclarationSpace holds the parameters.
func (m *MethodEntity) DeclarationSpace() *DeclarationSpace {
	if m.space == nil {
		m.space = NewDeclarationSpace()
	}
	return m.space
}

func (m *MethodEntity) Signature() Signature {
	tmpl := m
	if t, ok := OriginalDefinition(m).(*MethodEntity); ok {
		tmpl = t
	}
	sig := Signature{Name: m.name, TypeParameterCount: len(tmpl.typeParams)}
	for _, p := range m.params {
		sig.Parameters = append(sig.Parameters, ParameterSignature{Kind: p.kind, Type: p.typ.Text()})
	}
	return sig
}

func (m *MethodEntity) DistinctiveName() string { return m.Signature().String() }

// Children are type parameters, parameters, then the body.
func (m *MethodEntity) Children() []Entity {
	out := make([]Entity, 0, len(m.typeParams)+len(m.params)+1)
	for _, tp := range m.typeParams {
		out = append(out, tp)
	}
	for _, p := range m.params {
		out = append(out, p)
	}
	if m.body != nil {
		out = append(out, m.body)
	}
	return out
}

func (m *MethodEntity) References() []ReferenceInfo {
	var c refCollector
	collect(&c, "return_type", m.returnType)
	collect(&c, "explicit_interface", m.explicitInterface)
	return c
}

func (m *MethodEntity) shallowClone() Entity {
	return &MethodEntity{memberBase: m.cloneShell(), constructor: m.constructor}
}

// populate maps the signature. Instantiated methods carry no body.
func (m *MethodEntity) populate(tmpl Entity, tm *TypeParameterMap) {
	src := tmpl.(*MethodEntity)
	m.returnType = MapTypeReference(src.returnType, m, tm)
	m.explicitInterface = MapTypeReference(src.explicitInterface, m, tm)
	m.params = cloneParameters(src.params, m, tm)
	for _, p := range m.params {
		m.DeclarationSpace().Define(p)
	}
}

type PropertyEntity struct {
	memberBase
	typ               *Reference[TypeEntity]
	explicitInterface *Reference[TypeEntity]
	accessors         []*AccessorEntity
}

func (g *SemanticGraph) NewProperty(name string) *PropertyEntity {
	p := &PropertyEntity{}
	g.register(p, name)
	return p
}

func (p *PropertyEntity) Kind() EntityKind                              { return KindProperty }
func (p *PropertyEntity) Type() *Reference[TypeEntity]                  { return p.typ }
func (p *PropertyEntity) SetType(r *Reference[TypeEntity])              { p.typ = r }
func (p *PropertyEntity) ExplicitInterface() *Reference[TypeEntity]     { return p.explicitInterface }
func (p *PropertyEntity) SetExplicitInterface(r *Reference[TypeEntity]) { p.explicitInterface = r }
func (p *PropertyEntity) Accessors() []*AccessorEntity                  { return cloneAccessorSlice(p.accessors) }
func (p *PropertyEntity) AddAccessor(a *AccessorEntity) error           { return addAccessor(p, &p.accessors, a) }
func (p *PropertyEntity) Children() []Entity                            { return accessorChildren(p.accessors) }

func (p *PropertyEntity) References() []ReferenceInfo {
	var c refCollector
	collect(&c, "type", p.typ)
	collect(&c, "explicit_interface", p.explicitInterface)
	return c
}

func (p *PropertyEntity) shallowClone() Entity { return &PropertyEntity{memberBase: p.cloneShell()} }

func (p *PropertyEntity) populate(tmpl Entity, m *TypeParameterMap) {
	src := tmpl.(*PropertyEntity)
	p.typ = MapTypeReference(src.typ, p, m)
	p.explicitInterface = MapTypeReference(src.explicitInterface, p, m)
	p.accessors = cloneAccessors(src.accessors, p, m)
}

type EventEntity struct {
	memberBase
	typ               *Reference[TypeEntity]
	explicitInterface *Reference[TypeEntity]
	accessors         []*AccessorEntity
}

func (g *SemanticGraph) NewEvent(name string) *EventEntity {
	e := &EventEntity{}
	g.register(e, name)
	return e
}

func (e *EventEntity) Kind() EntityKind                              { return KindEvent }
func (e *EventEntity) Type() *Reference[TypeEntity]                  { return e.typ }
func (e *EventEntity) SetType(r *Reference[TypeEntity])              { e.typ = r }
func (e *EventEntity) ExplicitInterface() *Reference[TypeEntity]     { return e.explicitInterface }
func (e *EventEntity) SetExplicitInterface(r *Reference[TypeEntity]) { e.explicitInterface = r }
func (e *EventEntity) Accessors() []*AccessorEntity                  { return cloneAccessorSlice(e.accessors) }
func (e *EventEntity) AddAccessor(a *AccessorEntity) error           { return addAccessor(e, &e.accessors, a) }
func (e *EventEntity) Children() []Entity                            { return accessorChildren(e.accessors) }

func (e *EventEntity) References() []ReferenceInfo {
	var c refCollector
	collect(&c, "type", e.typ)
	collect(&c, "explicit_interface", e.explicitInterface)
	return c
}

func (e *EventEntity) shallowClone() Entity { return &EventEntity{memberBase: e.cloneShell()} }

func (e *EventEntity) populate(tmpl Entity, m *TypeParameterMap) {
	src := tmpl.(*EventEntity)
	e.typ = MapTypeReference(src.typ, e, m)
	e.explicitInterface = MapTypeReference(src.explicitInterface, e, m)
	e.accessors = cloneAccessors(src.accessors, e, m)
}

// AccessorEntity is a get, set, add or remove accessor. Its name is the accessor keyword.
type AccessorEntity struct {
	memberBase
	body *BlockStatement
}

func (g *SemanticGraph) NewAccessor(kind string) *AccessorEntity {
	a := &AccessorEntity{}
	g.register(a, kind)
	return a
}

func (a *AccessorEntity) Kind() EntityKind      { return KindAccessor }
func (a *AccessorEntity) Body() *BlockStatement { return a.body }

// Type is the type of the owning property or event.
func (a *AccessorEntity) Type() *Reference[TypeEntity] {
	if owner, ok := a.parent.(HasType); ok {
		return owner.Type()
	}
	return nil
}

func (a *AccessorEntity) SetBody(b *BlockStatement) error {
	if a.template != nil {
		return errInvalidOperation(a, "set a body")
	}
	if b.Parent() != nil {
		return ErrInvariant(b, "body already has a parent")
	}
	b.setParent(a)
	a.body = b
	return nil
}

func (a *AccessorEntity) Children() []Entity {
	if a.body == nil {
		return nil
	}
	return []Entity{a.body}
}

func addAccessor(owner Entity, list *[]*AccessorEntity, a *AccessorEntity) error {
	if a.Parent() != nil {
		return ErrInvariant(a, "accessor already has a parent")
	}
	a.setParent(owner)
	*list = append(*list, a)
	return nil
}

func cloneAccessorSlice(in []*AccessorEntity) []*AccessorEntity {
	out := make([]*AccessorEntity, len(in))
	copy(out, in)
	return out
}

func accessorChildren(in []*AccessorEntity) []Entity {
	out := make([]Entity, 0, len(in))
	for _, a := range in {
		out = append(out, a)
	}
	return out
}

func cloneAccessors(src []*AccessorEntity, owner Entity, m *TypeParameterMap) []*AccessorEntity {
	out := make([]*AccessorEntity, 0, len(src))
	for _, a := range src {
		c := &AccessorEntity{memberBase: a.cloneShell()}
		owner.Graph().register(c, a.name)
		cb := c.base()
		cb.parent = owner
		cb.template = a
		cb.typeMap = m
		out = append(out, c)
	}
	return out
}

// EnumMemberEntity is one enumerator. Its type is the declaring enum.
type EnumMemberEntity struct {
	memberBase
	value string
}

func (g *SemanticGraph) NewEnumMember(name, value string) *EnumMemberEntity {
	e := &EnumMemberEntity{value: value}
	g.register(e, name)
	return e
}

func (e *EnumMemberEntity) Kind() EntityKind { return KindEnumMember }
func (e *EnumMemberEntity) Value() string    { return e.value }

func (e *EnumMemberEntity) shallowClone() Entity {
	return &EnumMemberEntity{memberBase: e.cloneShell(), value: e.value}
}

func (e *EnumMemberEntity) populate(Entity, *TypeParameterMap) {}

// ParameterEntity is a formal parameter of a method or delegate.
type ParameterEntity struct {
	entityBase
	kind ParameterKind
	typ  *Reference[TypeEntity]
}

func (g *SemanticGraph) NewParameter(name string, kind ParameterKind) *ParameterEntity {
	p := &ParameterEntity{kind: kind}
	g.register(p, name)
	return p
}

func (p *ParameterEntity) Kind() EntityKind                 { return KindParameter }
func (p *ParameterEntity) ParameterKind() ParameterKind     { return p.kind }
func (p *ParameterEntity) Type() *Reference[TypeEntity]     { return p.typ }
func (p *ParameterEntity) SetType(r *Reference[TypeEntity]) { p.typ = r }

func (p *ParameterEntity) References() []ReferenceInfo {
	var c refCollector
	collect(&c, "type", p.typ)
	return c
}

func cloneParameters(src []*ParameterEntity, owner Entity, m *TypeParameterMap) []*ParameterEntity {
	out := make([]*ParameterEntity, 0, len(src))
	for _, p := range src {
		c := &ParameterEntity{kind: p.kind}
		owner.Graph().register(c, p.name)
		cb := c.base()
		cb.parent = owner
		cb.template = p
		cb.typeMap = m
		c.typ = MapTypeReference(p.typ, c, m)
		out = append(out, c)
	}
	return out
}
