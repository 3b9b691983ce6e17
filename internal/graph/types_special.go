package graph

// BuiltInTypeEntity is a keyword type (int, string, ...) aliasing a metadata type.
type BuiltInTypeEntity struct {
	typeCommon
	builtIn BuiltInType
	aliased TypeEntity
}

func (b *BuiltInTypeEntity) Kind() EntityKind     { return KindBuiltInType }
func (b *BuiltInTypeEntity) BuiltIn() BuiltInType { return b.builtIn }
func (b *BuiltInTypeEntity) Keyword() string      { return b.builtIn.Keyword() }

// Aliased returns the metadata type behind the keyword, or nil while metadata is not imported.
func (b *BuiltInTypeEntity) Aliased() TypeEntity {
	if b.aliased == nil && b.graph != nil && b.graph.metadata != nil {
		if t := b.graph.metadata.BuiltInType(b.builtIn); !isNilEntity(t) {
			b.aliased = t
		}
	}
	return b.aliased
}

func (b *BuiltInTypeEntity) DeclarationSpace() *DeclarationSpace {
	if a := b.Aliased(); a != nil {
		return a.DeclarationSpace()
	}
	return nil
}

func (b *BuiltInTypeEntity) Members() []MemberEntity {
	if a := b.Aliased(); a != nil {
		return a.Members()
	}
	return nil
}

func (b *BuiltInTypeEntity) NestedTypes() []TypeEntity { return nil }

func (b *BuiltInTypeEntity) BaseTypes() []*Reference[TypeEntity] {
	if a := b.Aliased(); a != nil {
		return a.BaseTypes()
	}
	return nil
}

// TypeParameterEntity is a generic parameter of a type or method.
type TypeParameterEntity struct {
	typeCommon
	variance    string
	constraints []*Reference[TypeEntity]

	ClassConstraint  bool
	StructConstraint bool
	NewConstraint    bool
}

func (g *SemanticGraph) NewTypeParameter(name string) *TypeParameterEntity {
	tp := &TypeParameterEntity{}
	g.register(tp, name)
	return tp
}

func (tp *TypeParameterEntity) Kind() EntityKind          { return KindTypeParameter }
func (tp *TypeParameterEntity) Variance() string          { return tp.variance }
func (tp *TypeParameterEntity) SetVariance(v string)      { tp.variance = v }
func (tp *TypeParameterEntity) NestedTypes() []TypeEntity { return nil }

// DeclarationSpace is empty; members are reached through constraints.
func (tp *TypeParameterEntity) DeclarationSpace() *DeclarationSpace { return nil }

func (tp *TypeParameterEntity) Constraints() []*Reference[TypeEntity] {
	out := make([]*Reference[TypeEntity], len(tp.constraints))
	copy(out, tp.constraints)
	return out
}

func (tp *TypeParameterEntity) AddConstraint(r *Reference[TypeEntity]) {
	tp.constraints = append(tp.constraints, r)
}

// Members of a type parameter are those available through its constraints.
func (tp *TypeParameterEntity) Members() []MemberEntity {
	var out []MemberEntity
	for _, r := range tp.constraints {
		if t, ok := r.Target(); ok {
			out = append(out, t.Members()...)
		}
	}
	return out
}

// BaseTypes are the type constraints.
func (tp *TypeParameterEntity) BaseTypes() []*Reference[TypeEntity] { return tp.Constraints() }

func (tp *TypeParameterEntity) References() []ReferenceInfo {
	var c refCollector
	for _, r := range tp.constraints {
		collect(&c, "constraint", r)
	}
	return c
}

// ArrayTypeEntity is T[] (or T[,] for higher rank). It aliases System.Array.
type ArrayTypeEntity struct {
	typeCommon
	element TypeEntity
	rank    int
}

func (a *ArrayTypeEntity) Kind() EntityKind        { return KindArrayType }
func (a *ArrayTypeEntity) ElementType() TypeEntity { return a.element }
func (a *ArrayTypeEntity) Rank() int               { return a.rank }
func (a *ArrayTypeEntity) Program() *Program       { return a.element.Program() }

func (a *ArrayTypeEntity) DistinctiveName() string {
	return a.element.DistinctiveName() + rankSuffix(a.rank)
}

func (a *ArrayTypeEntity) aliased() TypeEntity {
	if a.graph == nil || a.graph.metadata == nil {
		return nil
	}
	t := a.graph.metadata.ArrayBaseType()
	if isNilEntity(t) {
		return nil
	}
	return t
}

func (a *ArrayTypeEntity) DeclarationSpace() *DeclarationSpace {
	if t := a.aliased(); t != nil {
		return t.DeclarationSpace()
	}
	return nil
}

func (a *ArrayTypeEntity) Members() []MemberEntity {
	if t := a.aliased(); t != nil {
		return t.Members()
	}
	return nil
}

func (a *ArrayTypeEntity) NestedTypes() []TypeEntity { return nil }

func (a *ArrayTypeEntity) BaseTypes() []*Reference[TypeEntity] {
	if t := a.aliased(); t != nil {
		return []*Reference[TypeEntity]{ResolvedReference[TypeEntity](a, t)}
	}
	return nil
}

// PointerTypeEntity is T*. It declares no members.
type PointerTypeEntity struct {
	typeCommon
	underlying TypeEntity
}

func (p *PointerTypeEntity) Kind() EntityKind                    { return KindPointerType }
func (p *PointerTypeEntity) UnderlyingType() TypeEntity          { return p.underlying }
func (p *PointerTypeEntity) Program() *Program                   { return p.underlying.Program() }
func (p *PointerTypeEntity) DistinctiveName() string             { return p.underlying.DistinctiveName() + "*" }
func (p *PointerTypeEntity) DeclarationSpace() *DeclarationSpace { return nil }
func (p *PointerTypeEntity) Members() []MemberEntity             { return nil }
func (p *PointerTypeEntity) NestedTypes() []TypeEntity           { return nil }
func (p *PointerTypeEntity) BaseTypes() []*Reference[TypeEntity] { return nil }

// NullableTypeEntity is T?. It aliases Nullable<T> once metadata is imported.
type NullableTypeEntity struct {
	typeCommon
	underlying TypeEntity
	aliased    TypeEntity
}

func (n *NullableTypeEntity) Kind() EntityKind           { return KindNullableType }
func (n *NullableTypeEntity) UnderlyingType() TypeEntity { return n.underlying }
func (n *NullableTypeEntity) Program() *Program          { return n.underlying.Program() }
func (n *NullableTypeEntity) DistinctiveName() string    { return n.underlying.DistinctiveName() + "?" }

// Aliased returns Nullable<T> instantiated with the underlying type, or nil before import.
func (n *NullableTypeEntity) Aliased() TypeEntity {
	if n.aliased != nil || n.graph == nil || n.graph.metadata == nil {
		return n.aliased
	}
	def := n.graph.metadata.NullableDefinition()
	if isNilEntity(def) {
		return nil
	}
	params := AllTypeParameters(def)
	if len(params) != 1 {
		return nil
	}
	if t, ok := GetConstructedEntity(def, TypeParameterMapOf(params, []TypeEntity{n.underlying})).(TypeEntity); ok {
		n.aliased = t
	}
	return n.aliased
}

func (n *NullableTypeEntity) DeclarationSpace() *DeclarationSpace {
	if a := n.Aliased(); a != nil {
		return a.DeclarationSpace()
	}
	return nil
}

func (n *NullableTypeEntity) Members() []MemberEntity {
	if a := n.Aliased(); a != nil {
		return a.Members()
	}
	return nil
}

func (n *NullableTypeEntity) NestedTypes() []TypeEntity { return nil }

func (n *NullableTypeEntity) BaseTypes() []*Reference[TypeEntity] {
	if a := n.Aliased(); a != nil {
		return []*Reference[TypeEntity]{ResolvedReference[TypeEntity](n, a)}
	}
	return nil
}

// GetConstructedArrayType returns the unique array of t with the given rank.
func GetConstructedArrayType(t TypeEntity, rank int) *ArrayTypeEntity {
	if rank < 1 {
		rank = 1
	}
	w := t.wrappers()
	if a, ok := w.arrays[rank]; ok {
		return a
	}
	a := &ArrayTypeEntity{element: t, rank: rank}
	t.Graph().register(a, t.Name()+rankSuffix(rank))
	if w.arrays == nil {
		w.arrays = make(map[int]*ArrayTypeEntity)
	}
	w.arrays[rank] = a
	return a
}

// GetConstructedPointerType returns the unique pointer to t.
func GetConstructedPointerType(t TypeEntity) *PointerTypeEntity {
	w := t.wrappers()
	if w.pointer == nil {
		p := &PointerTypeEntity{underlying: t}
		t.Graph().register(p, t.Name()+"*")
		w.pointer = p
	}
	return w.pointer
}

// GetConstructedNullableType returns the unique nullable of t. Nullable of a
// nullable type is the type itself.
func GetConstructedNullableType(t TypeEntity) TypeEntity {
	if n, ok := t.(*NullableTypeEntity); ok {
		return n
	}
	w := t.wrappers()
	if w.nullable == nil {
		n := &NullableTypeEntity{underlying: t}
		t.Graph().register(n, t.Name()+"?")
		w.nullable = n
	}
	return w.nullable
}
