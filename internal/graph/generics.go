package graph

import "sort"

// constructible is implemented by entities that can be instantiated with type arguments:
// declared types and the members they own.
type constructible interface {
	Entity
	// shallowClone returns an unregistered copy carrying the receiver's own
	// attributes (modifiers, declared accessibility) but none of its children.
	shallowClone() Entity
	// populate fills the receiver, a fresh clone of tmpl, with tmpl's children
	// instantiated through m.
	populate(tmpl Entity, m *TypeParameterMap)
}

// CanHaveTypeParameters is implemented by generic declarations.
type CanHaveTypeParameters interface {
	Entity
	// TypeParameters fails with INVALID_OPERATION on a constructed entity.
	TypeParameters() ([]*TypeParameterEntity, error)
	AddTypeParameter(tp *TypeParameterEntity) error

	declaredTypeParameters() []*TypeParameterEntity
}

// AllTypeParameters returns the type parameters in scope of e's declaration,
// outermost enclosing type first and e's own parameters last.
func AllTypeParameters(e Entity) []*TypeParameterEntity {
	e = OriginalDefinition(e)
	var chain []Entity
	for x := e; x != nil; x = x.Parent() {
		if _, ok := x.(*NamespaceEntity); ok {
			break
		}
		chain = append(chain, x)
	}
	var out []*TypeParameterEntity
	for i := len(chain) - 1; i >= 0; i-- {
		if tp, ok := OriginalDefinition(chain[i]).(CanHaveTypeParameters); ok {
			out = append(out, tp.declaredTypeParameters()...)
		}
	}
	return out
}

// GetConstructedEntity returns the instantiation of e under m.
//
// The map is normalised to the parameters in scope of e's declaration, so the
// same substitution always yields the same instance, whichever route (nested
// type access, member of a constructed type, direct construction) reached it.
// When m binds none of those parameters, e itself is returned. Entities that
// cannot be instantiated are returned unchanged.
func GetConstructedEntity(e Entity, m *TypeParameterMap) Entity {
	c, ok := e.(constructible)
	if !ok {
		return e
	}
	if IsConstructed(e) {
		tmpl, ok := OriginalDefinition(e).(constructible)
		if !ok {
			return e
		}
		return GetConstructedEntity(tmpl, e.TypeParameterMap().Compose(m))
	}

	key := m.Restrict(AllTypeParameters(c))
	if key.IsUnbound() {
		return e
	}
	if hit := c.base().lookupInstance(key); hit != nil {
		return hit
	}
	return instantiate(c, key, constructedParent(c, key))
}

// Construct is GetConstructedEntity for callers that know the variant.
func Construct[T Entity](e T, m *TypeParameterMap) T {
	if c, ok := GetConstructedEntity(e, m).(T); ok {
		return c
	}
	return e
}

// constructedParent is the instantiation of c's container under the part of key
// that the container declares, or the container itself.
func constructedParent(c constructible, key *TypeParameterMap) Entity {
	p := c.Parent()
	pc, ok := p.(constructible)
	if !ok {
		return p
	}
	params := AllTypeParameters(pc)
	if len(params) == 0 {
		return p
	}
	return GetConstructedEntity(pc, key.Restrict(params))
}

// constructChild instantiates a child of a template under the parent's map,
// attaching it to parent, the parent's instantiation.
func constructChild(child Entity, m *TypeParameterMap, parent Entity) Entity {
	c, ok := child.(constructible)
	if !ok {
		return nil
	}
	return instantiate(c, m.Restrict(AllTypeParameters(c)), parent)
}

func instantiate(tmpl constructible, key *TypeParameterMap, parent Entity) Entity {
	b := tmpl.base()
	// Constructing the parent may already have produced this instance.
	if hit := b.lookupInstance(key); hit != nil {
		return hit
	}

	shell := tmpl.shallowClone()
	tmpl.Graph().register(shell, tmpl.Name())
	sb := shell.base()
	sb.template = tmpl
	sb.typeMap = key
	sb.parent = parent
	sb.program = b.program

	// The shell is cached before it is populated so that self-references in
	// member types resolve to it.
	b.storeInstance(key, shell)
	shell.(constructible).populate(tmpl, key)
	return shell
}

func (b *entityBase) lookupInstance(key *TypeParameterMap) Entity {
	for _, e := range b.instances[key.Hash()] {
		if e.TypeParameterMap().Equal(key) {
			return e
		}
	}
	return nil
}

func (b *entityBase) storeInstance(key *TypeParameterMap, e Entity) {
	if b.instances == nil {
		b.instances = make(map[uint64][]Entity)
	}
	h := key.Hash()
	b.instances[h] = append(b.instances[h], e)
}

// Instances returns the cached instantiations of e.
func Instances(e Entity) []Entity {
	var out []Entity
	for _, bucket := range e.base().instances {
		out = append(out, bucket...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
