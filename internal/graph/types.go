package graph

import "strconv"

// DeclarationSpaceDefiner is implemented by every entity that owns a declaration space.
type DeclarationSpaceDefiner interface {
	Entity
	DeclarationSpace() *DeclarationSpace
}

// NamespaceOrTypeEntity is a namespace or a type.
type NamespaceOrTypeEntity interface {
	DeclarationSpaceDefiner
	NestedTypes() []TypeEntity
}

// TypeEntity is any type, declared or constructed.
type TypeEntity interface {
	NamespaceOrTypeEntity
	Members() []MemberEntity
	// BaseTypes returns the base class and interface references, in declaration order.
	BaseTypes() []*Reference[TypeEntity]

	wrappers() *typeCommon
}

// HasChildTypes is implemented by containers of type declarations.
type HasChildTypes interface {
	NamespaceOrTypeEntity
	AddNestedType(t TypeEntity) error
	RemoveNestedType(t TypeEntity) bool
}

// HasMembers is implemented by types that declare members.
type HasMembers interface {
	TypeEntity
	AddMember(m MemberEntity) error
	RemoveMember(m MemberEntity) bool
}

// typeCommon carries the wrapper-type caches every type has.
type typeCommon struct {
	entityBase
	arrays   map[int]*ArrayTypeEntity
	pointer  *PointerTypeEntity
	nullable *NullableTypeEntity
}

func (t *typeCommon) wrappers() *typeCommon { return t }

// typeBase is shared by the declared type variants.
type typeBase struct {
	typeCommon
	accessibilityHolder
	modifiers  Modifiers
	space      *DeclarationSpace
	typeParams []*TypeParameterEntity
	baseTypes  []*Reference[TypeEntity]
	members    []MemberEntity
	nested     []TypeEntity
}

type declaredType interface {
	HasMembers
	declared() *typeBase
}

func (t *typeBase) declared() *typeBase { return t }

func (t *typeBase) Modifiers() Modifiers     { return t.modifiers }
func (t *typeBase) SetModifiers(m Modifiers) { t.modifiers = m }
func (t *typeBase) IsPartial() bool          { return t.modifiers.Has(ModPartial) }

func (t *typeBase) DeclarationSpace() *DeclarationSpace {
	if t.space == nil {
		t.space = NewDeclarationSpace()
	}
	return t.space
}

// DistinctiveName appends the generic arity (List`1) to declarations and the
// type arguments (List<int>) to instantiations.
func (t *typeBase) DistinctiveName() string {
	if t.template != nil {
		return displayName(t.self)
	}
	if n := len(t.typeParams); n > 0 {
		return t.name + "`" + strconv.Itoa(n)
	}
	return t.name
}

func (t *typeBase) TypeParameters() ([]*TypeParameterEntity, error) {
	if t.template != nil {
		return nil, errInvalidOperation(t.self, "query type parameters")
	}
	return t.declaredTypeParameters(), nil
}

// AddTypeParameter must be called before the type is added to its container,
// since the arity is part of the distinctive name.
func (t *typeBase) AddTypeParameter(tp *TypeParameterEntity) error {
	if t.template != nil {
		return errInvalidOperation(t.self, "add a type parameter")
	}
	tp.setParent(t.self)
	t.typeParams = append(t.typeParams, tp)
	return nil
}

func (t *typeBase) declaredTypeParameters() []*TypeParameterEntity {
	out := make([]*TypeParameterEntity, len(t.typeParams))
	copy(out, t.typeParams)
	return out
}

func (t *typeBase) BaseTypes() []*Reference[TypeEntity] {
	out := make([]*Reference[TypeEntity], len(t.baseTypes))
	copy(out, t.baseTypes)
	return out
}

func (t *typeBase) AddBaseType(ref *Reference[TypeEntity]) error {
	if t.template != nil {
		return errInvalidOperation(t.self, "add a base type")
	}
	t.baseTypes = append(t.baseTypes, ref)
	return nil
}

func (t *typeBase) Members() []MemberEntity {
	out := make([]MemberEntity, len(t.members))
	copy(out, t.members)
	return out
}

func (t *typeBase) AddMember(m MemberEntity) error {
	if m.Parent() != nil {
		return ErrInvariant(m, "member "+m.Name()+" already has a parent")
	}
	m.setParent(t.self)
	t.members = append(t.members, m)
	t.DeclarationSpace().Define(m)
	return nil
}

func (t *typeBase) RemoveMember(m MemberEntity) bool {
	for i, x := range t.members {
		if x != m {
			continue
		}
		t.members = append(t.members[:i], t.members[i+1:]...)
		t.DeclarationSpace().Undefine(m)
		m.setParent(nil)
		return true
	}
	return false
}

func (t *typeBase) NestedTypes() []TypeEntity {
	out := make([]TypeEntity, len(t.nested))
	copy(out, t.nested)
	return out
}

func (t *typeBase) AddNestedType(n TypeEntity) error {
	if n.Parent() != nil {
		return ErrInvariant(n, "type "+n.Name()+" already has a parent")
	}
	n.setParent(t.self)
	t.nested = append(t.nested, n)
	t.DeclarationSpace().Define(n)
	return nil
}

func (t *typeBase) RemoveNestedType(n TypeEntity) bool {
	for i, x := range t.nested {
		if x != n {
			continue
		}
		t.nested = append(t.nested[:i], t.nested[i+1:]...)
		t.DeclarationSpace().Undefine(n)
		n.setParent(nil)
		return true
	}
	return false
}

// Children are type parameters, then members, then nested types.
func (t *typeBase) Children() []Entity {
	out := make([]Entity, 0, len(t.typeParams)+len(t.members)+len(t.nested))
	for _, tp := range t.typeParams {
		out = append(out, tp)
	}
	for _, m := range t.members {
		out = append(out, m)
	}
	for _, n := range t.nested {
		out = append(out, n)
	}
	return out
}

func (t *typeBase) References() []ReferenceInfo {
	var c refCollector
	for _, r := range t.baseTypes {
		collect(&c, "base_type", r)
	}
	return c
}

func (t *typeBase) cloneShell() typeBase {
	return typeBase{accessibilityHolder: t.accessibilityHolder, modifiers: t.modifiers}
}

func (t *typeBase) populate(tmpl Entity, m *TypeParameterMap) {
	src := tmpl.(declaredType).declared()
	for _, r := range src.baseTypes {
		t.baseTypes = append(t.baseTypes, MapTypeReference(r, t.self, m))
	}
	for _, mem := range src.members {
		if c, ok := constructChild(mem, m, t.self).(MemberEntity); ok {
			t.members = append(t.members, c)
			t.DeclarationSpace().Define(c)
		}
	}
	for _, n := range src.nested {
		if c, ok := constructChild(n, m, t.self).(TypeEntity); ok {
			t.nested = append(t.nested, c)
			t.DeclarationSpace().Define(c)
		}
	}
}

type ClassEntity struct {
	typeBase
}

func (g *SemanticGraph) NewClass(name string) *ClassEntity {
	c := &ClassEntity{}
	g.register(c, name)
	return c
}

func (c *ClassEntity) Kind() EntityKind     { return KindClass }
func (c *ClassEntity) shallowClone() Entity { return &ClassEntity{typeBase: c.cloneShell()} }

// BaseClass returns the resolved base class, or nil when none is declared or resolved.
func (c *ClassEntity) BaseClass() TypeEntity {
	for _, r := range c.baseTypes {
		t, ok := r.Target()
		if !ok {
			continue
		}
		if _, ok := OriginalDefinition(t).(*ClassEntity); ok {
			return t
		}
	}
	return nil
}

type StructEntity struct {
	typeBase
}

func (g *SemanticGraph) NewStruct(name string) *StructEntity {
	s := &StructEntity{}
	g.register(s, name)
	return s
}

func (s *StructEntity) Kind() EntityKind     { return KindStruct }
func (s *StructEntity) shallowClone() Entity { return &StructEntity{typeBase: s.cloneShell()} }

type InterfaceEntity struct {
	typeBase
}

func (g *SemanticGraph) NewInterface(name string) *InterfaceEntity {
	i := &InterfaceEntity{}
	g.register(i, name)
	return i
}

func (i *InterfaceEntity) Kind() EntityKind     { return KindInterface }
func (i *InterfaceEntity) shallowClone() Entity { return &InterfaceEntity{typeBase: i.cloneShell()} }

type EnumEntity struct {
	typeBase
}

func (g *SemanticGraph) NewEnum(name string) *EnumEntity {
	e := &EnumEntity{}
	g.register(e, name)
	return e
}

func (e *EnumEntity) Kind() EntityKind     { return KindEnum }
func (e *EnumEntity) shallowClone() Entity { return &EnumEntity{typeBase: e.cloneShell()} }

// UnderlyingType is the declared integral base (`enum E : byte`), or nil for the default int.
func (e *EnumEntity) UnderlyingType() *Reference[TypeEntity] {
	if len(e.baseTypes) == 0 {
		return nil
	}
	return e.baseTypes[0]
}

type DelegateEntity struct {
	typeBase
	returnType *Reference[TypeEntity]
	params     []*ParameterEntity
}

func (g *SemanticGraph) NewDelegate(name string) *DelegateEntity {
	d := &DelegateEntity{}
	g.register(d, name)
	return d
}

func (d *DelegateEntity) Kind() EntityKind { return KindDelegate }

func (d *DelegateEntity) ReturnType() *Reference[TypeEntity]     { return d.returnType }
func (d *DelegateEntity) SetReturnType(r *Reference[TypeEntity]) { d.returnType = r }

func (d *DelegateEntity) Parameters() []*ParameterEntity {
	out := make([]*ParameterEntity, len(d.params))
	copy(out, d.params)
	return out
}

func (d *DelegateEntity) AddParameter(p *ParameterEntity) error {
	if d.template != nil {
		return errInvalidOperation(d, "add a parameter")
	}
	p.setParent(d)
	d.params = append(d.params, p)
	return nil
}

func (d *DelegateEntity) Children() []Entity {
	out := d.typeBase.Children()
	for _, p := range d.params {
		out = append(out, p)
	}
	return out
}

func (d *DelegateEntity) References() []ReferenceInfo {
	c := refCollector(d.typeBase.References())
	collect(&c, "return_type", d.returnType)
	return c
}

func (d *DelegateEntity) shallowClone() Entity { return &DelegateEntity{typeBase: d.cloneShell()} }

func (d *DelegateEntity) populate(tmpl Entity, m *TypeParameterMap) {
	d.typeBase.populate(tmpl, m)
	src := tmpl.(*DelegateEntity)
	d.returnType = MapTypeReference(src.returnType, d, m)
	d.params = cloneParameters(src.params, d, m)
}

// MergePartial folds the partial declaration dup into primary: modifiers,
// syntax nodes, base types, members and nested types move over and dup is
// detached from its container. Both must be declared (not constructed) types
// of the same kind.
func MergePartial(primary, dup TypeEntity) error {
	p, ok := primary.(declaredType)
	d, ok2 := dup.(declaredType)
	if !ok || !ok2 || primary.Kind() != dup.Kind() {
		return ErrInvariant(dup, "partial declarations of "+dup.Name()+" disagree on kind")
	}
	if IsConstructed(primary) || IsConstructed(dup) {
		return errInvalidOperation(dup, "merge partial declarations")
	}
	pt, dt := p.declared(), d.declared()
	if len(pt.typeParams) != len(dt.typeParams) {
		return ErrInvariant(dup, "partial declarations of "+dup.Name()+" disagree on arity")
	}

	if container, ok := dup.Parent().(HasChildTypes); ok {
		container.RemoveNestedType(dup)
	}
	pt.modifiers |= dt.modifiers
	if _, set := pt.DeclaredAccessibility(); !set {
		if a, set := dt.DeclaredAccessibility(); set {
			pt.SetDeclaredAccessibility(a)
		}
	}
	for _, n := range dt.syntax {
		pt.AddSyntaxNode(n)
	}
	for _, r := range dt.baseTypes {
		r.owner = primary
		pt.baseTypes = append(pt.baseTypes, r)
	}
	dt.baseTypes = nil
	for _, m := range dt.Members() {
		dt.RemoveMember(m)
		if err := pt.AddMember(m); err != nil {
			return err
		}
	}
	for _, n := range dt.NestedTypes() {
		dt.RemoveNestedType(n)
		if err := pt.AddNestedType(n); err != nil {
			return err
		}
	}
	return nil
}

// IsSameOrDerivedFrom reports whether t is base or inherits from it, directly or
// through resolved base types. Instantiations are compared by their declaration.
func IsSameOrDerivedFrom(t, base TypeEntity) bool {
	if t == nil || base == nil {
		return false
	}
	want := OriginalDefinition(base)
	seen := make(map[Entity]bool)
	var walk func(x TypeEntity) bool
	walk = func(x TypeEntity) bool {
		orig := OriginalDefinition(x)
		if orig == want {
			return true
		}
		if seen[orig] {
			return false
		}
		seen[orig] = true
		for _, r := range x.BaseTypes() {
			if bt, ok := r.Target(); ok && walk(bt) {
				return true
			}
		}
		return false
	}
	if walk(t) {
		return true
	}
	// Every class derives from object even when no base is written.
	if g := t.Graph(); g != nil {
		if obj := g.BuiltIn(BuiltInObject).Aliased(); obj != nil && OriginalDefinition(obj) == want {
			return true
		}
	}
	return false
}

// MembersNamed returns the members and nested types of t called name, including
// inherited ones. Members of derived types come first.
func MembersNamed(t TypeEntity, name string) []Entity {
	var out []Entity
	seen := make(map[Entity]bool)
	var walk func(x TypeEntity)
	walk = func(x TypeEntity) {
		if x == nil || seen[x] {
			return
		}
		seen[x] = true
		for _, m := range x.Members() {
			if m.Name() == name {
				out = append(out, m)
			}
		}
		for _, n := range x.NestedTypes() {
			if n.Name() == name {
				out = append(out, n)
			}
		}
		for _, r := range x.BaseTypes() {
			if bt, ok := r.Target(); ok {
				walk(bt)
			}
		}
	}
	walk(t)
	return out
}
