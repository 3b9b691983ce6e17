package graph

import (
	"encoding/binary"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// TypeParameterPair binds one type parameter. A nil Argument means the parameter is unbound.
type TypeParameterPair struct {
	Parameter *TypeParameterEntity
	Argument  TypeEntity
}

// TypeParameterMap is an ordered substitution of type parameters by type arguments.
// Equality and hashing ignore insertion order.
type TypeParameterMap struct {
	pairs []TypeParameterPair
}

func NewTypeParameterMap() *TypeParameterMap {
	return &TypeParameterMap{}
}

// TypeParameterMapOf zips params with args. Missing args leave parameters unbound.
func TypeParameterMapOf(params []*TypeParameterEntity, args []TypeEntity) *TypeParameterMap {
	m := NewTypeParameterMap()
	for i, p := range params {
		var a TypeEntity
		if i < len(args) {
			a = args[i]
		}
		m.Add(p, a)
	}
	return m
}

func (m *TypeParameterMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.pairs)
}

func (m *TypeParameterMap) IsEmpty() bool { return m.Len() == 0 }

// Pairs returns a copy of the pairs in insertion order.
func (m *TypeParameterMap) Pairs() []TypeParameterPair {
	if m == nil {
		return nil
	}
	out := make([]TypeParameterPair, len(m.pairs))
	copy(out, m.pairs)
	return out
}

// Add binds p to arg, replacing an existing binding of p in place.
func (m *TypeParameterMap) Add(p *TypeParameterEntity, arg TypeEntity) {
	if isNilEntity(arg) {
		arg = nil
	}
	arg = canonicalType(arg)
	for i := range m.pairs {
		if m.pairs[i].Parameter == p {
			m.pairs[i].Argument = arg
			return
		}
	}
	m.pairs = append(m.pairs, TypeParameterPair{Parameter: p, Argument: arg})
}

// Get returns the argument bound to p. ok is false when p is not in the map;
// an unbound parameter reports ok with a nil argument.
func (m *TypeParameterMap) Get(p *TypeParameterEntity) (TypeEntity, bool) {
	if m == nil {
		return nil, false
	}
	for _, pair := range m.pairs {
		if pair.Parameter == p {
			return pair.Argument, true
		}
	}
	return nil, false
}

func (m *TypeParameterMap) Contains(p *TypeParameterEntity) bool {
	_, ok := m.Get(p)
	return ok
}

func (m *TypeParameterMap) Clone() *TypeParameterMap {
	return &TypeParameterMap{pairs: m.Pairs()}
}

// IsUnbound reports whether no parameter has an argument.
func (m *TypeParameterMap) IsUnbound() bool {
	if m == nil {
		return true
	}
	for _, pair := range m.pairs {
		if pair.Argument != nil {
			return false
		}
	}
	return true
}

// Equal reports whether both maps bind the same parameters to identical arguments.
func (m *TypeParameterMap) Equal(o *TypeParameterMap) bool {
	if m.Len() != o.Len() {
		return false
	}
	if m == nil {
		return true
	}
	for _, pair := range m.pairs {
		arg, ok := o.Get(pair.Parameter)
		if !ok || arg != pair.Argument {
			return false
		}
	}
	return true
}

// Hash is consistent with Equal: per-pair hashes are summed so order does not matter.
func (m *TypeParameterMap) Hash() uint64 {
	if m == nil {
		return 0
	}
	var sum uint64
	var buf [16]byte
	for _, pair := range m.pairs {
		binary.LittleEndian.PutUint64(buf[:8], uint64(pair.Parameter.ID()))
		var arg uint64
		if pair.Argument != nil {
			arg = uint64(pair.Argument.ID())
		}
		binary.LittleEndian.PutUint64(buf[8:], arg)
		sum += xxhash.Sum64(buf[:])
	}
	return sum
}

// Restrict returns the bindings of params, in params order. Parameters missing
// from m are added unbound.
func (m *TypeParameterMap) Restrict(params []*TypeParameterEntity) *TypeParameterMap {
	out := NewTypeParameterMap()
	for _, p := range params {
		arg, _ := m.Get(p)
		if arg == p {
			arg = nil
		}
		out.Add(p, arg)
	}
	return out
}

// Compose applies o on top of m: bound arguments of m are substituted through o,
// unbound parameters of m take their binding from o, and bindings only o has are appended.
func (m *TypeParameterMap) Compose(o *TypeParameterMap) *TypeParameterMap {
	out := NewTypeParameterMap()
	for _, pair := range m.Pairs() {
		if pair.Argument == nil {
			arg, _ := o.Get(pair.Parameter)
			out.Add(pair.Parameter, arg)
			continue
		}
		out.Add(pair.Parameter, o.MapType(pair.Argument))
	}
	for _, pair := range o.Pairs() {
		if !out.Contains(pair.Parameter) {
			out.Add(pair.Parameter, pair.Argument)
		}
	}
	return out
}

// MapType substitutes the map into t, rebuilding wrapper and constructed types
// around substituted parts. Types that do not mention a mapped parameter are returned unchanged.
func (m *TypeParameterMap) MapType(t TypeEntity) TypeEntity {
	if t == nil || m.IsEmpty() {
		return t
	}
	switch tt := t.(type) {
	case *TypeParameterEntity:
		if arg, ok := m.Get(tt); ok && arg != nil {
			return arg
		}
		return t
	case *ArrayTypeEntity:
		if elem := m.MapType(tt.ElementType()); elem != tt.ElementType() {
			return GetConstructedArrayType(elem, tt.Rank())
		}
		return t
	case *PointerTypeEntity:
		if u := m.MapType(tt.UnderlyingType()); u != tt.UnderlyingType() {
			return GetConstructedPointerType(u)
		}
		return t
	case *NullableTypeEntity:
		if u := m.MapType(tt.UnderlyingType()); u != tt.UnderlyingType() {
			return GetConstructedNullableType(u)
		}
		return t
	}

	tmpl, ok := OriginalDefinition(t).(constructible)
	if !ok {
		return t
	}
	params := AllTypeParameters(tmpl)
	if len(params) == 0 {
		return t
	}
	current := t.TypeParameterMap()
	next := NewTypeParameterMap()
	changed := false
	for _, p := range params {
		arg, _ := current.Get(p)
		var mapped TypeEntity
		if arg == nil {
			mapped, _ = m.Get(p)
		} else {
			mapped = m.MapType(arg)
		}
		if mapped != arg {
			changed = true
		}
		next.Add(p, mapped)
	}
	if !changed {
		return t
	}
	if c, ok := GetConstructedEntity(tmpl, next).(TypeEntity); ok {
		return c
	}
	return t
}

func (m *TypeParameterMap) String() string {
	if m == nil {
		return "{}"
	}
	parts := make([]string, 0, len(m.pairs))
	for _, pair := range m.pairs {
		arg := "_"
		if pair.Argument != nil {
			arg = QualifiedName(pair.Argument)
		}
		parts = append(parts, pair.Parameter.Name()+"="+arg)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// canonicalType maps a metadata type that a keyword aliases (System.Int32) to the
// keyword entity (int), so both spellings yield one instantiation.
func canonicalType(t TypeEntity) TypeEntity {
	if t == nil {
		return nil
	}
	if _, ok := t.(*BuiltInTypeEntity); ok {
		return t
	}
	g := t.Graph()
	if g == nil {
		return t
	}
	if b := g.builtInAliasOf(t); b != nil {
		return b
	}
	return t
}
