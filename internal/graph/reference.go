package graph

import (
	"errors"
	"reflect"

	"sharpsem/internal/ir"
)

type ResolutionState int

const (
	NotYetResolved ResolutionState = iota
	Resolved
	Unresolvable
)

func (s ResolutionState) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case Unresolvable:
		return "unresolvable"
	default:
		return "not_yet_resolved"
	}
}

// Resolver produces the target of a reference.
//
// Returning ErrDeferred leaves the reference NotYetResolved. Any other error
// makes it Unresolvable, except fatal errors (see IsFatal) which are passed
// through without a state change.
type Resolver[T any] interface {
	Resolve(ref *Reference[T]) (T, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc[T any] func(ref *Reference[T]) (T, error)

func (f ResolverFunc[T]) Resolve(ref *Reference[T]) (T, error) { return f(ref) }

// Reference is a tri-state handle to another entity. Once Resolved or
// Unresolvable it never changes state again. T is always an Entity type;
// the constructors enforce it.
type Reference[T any] struct {
	owner     Entity
	syntax    ir.Node
	resolver  Resolver[T]
	state     ResolutionState
	target    T
	err       error
	resolving bool
}

// NewReference creates an unresolved reference looked up from owner's scope.
func NewReference[T Entity](owner Entity, syntax ir.Node, resolver Resolver[T]) *Reference[T] {
	return &Reference[T]{owner: owner, syntax: syntax, resolver: resolver}
}

// ResolvedReference creates a reference that is already bound to target.
func ResolvedReference[T Entity](owner Entity, target T) *Reference[T] {
	return &Reference[T]{owner: owner, state: Resolved, target: target}
}

// Owner is the entity in whose scope the reference is resolved.
func (r *Reference[T]) Owner() Entity { return r.owner }

// Syntax is the construct the reference was derived from, if any.
func (r *Reference[T]) Syntax() ir.Node { return r.syntax }

func (r *Reference[T]) State() ResolutionState {
	if r == nil {
		return NotYetResolved
	}
	return r.state
}

// Err is the failure recorded when the reference became Unresolvable.
func (r *Reference[T]) Err() error {
	if r == nil {
		return nil
	}
	return r.err
}

// Target returns the resolved target without attempting resolution.
func (r *Reference[T]) Target() (T, bool) {
	var zero T
	if r == nil || r.state != Resolved {
		return zero, false
	}
	return r.target, true
}

// Bind attaches a resolver to a reference that has none yet.
func (r *Reference[T]) Bind(resolver Resolver[T]) {
	if r != nil && r.state == NotYetResolved && r.resolver == nil {
		r.resolver = resolver
	}
}

// Fail marks the reference Unresolvable. It has no effect on a settled reference.
func (r *Reference[T]) Fail(err error) {
	if r == nil || r.state != NotYetResolved {
		return
	}
	r.state = Unresolvable
	r.err = err
}

// Resolve runs the resolver once and settles the reference.
func (r *Reference[T]) Resolve() (T, error) {
	var zero T
	if r == nil {
		return zero, nil
	}
	switch r.state {
	case Resolved:
		return r.target, nil
	case Unresolvable:
		return zero, r.err
	}
	if r.resolver == nil {
		return zero, ErrDeferred
	}
	if r.resolving {
		r.Fail(ErrCyclic(r.owner, r.Text()))
		return zero, r.err
	}

	r.resolving = true
	t, err := r.resolver.Resolve(r)
	r.resolving = false

	// A re-entrant call may already have settled the reference.
	if r.state != NotYetResolved {
		if r.state == Resolved {
			return r.target, nil
		}
		return zero, r.err
	}

	switch {
	case errors.Is(err, ErrDeferred):
		return zero, ErrDeferred
	case err != nil && IsFatal(err):
		return zero, err
	case err != nil:
		r.Fail(err)
		return zero, err
	case isNilEntity(t):
		r.Fail(ErrNameNotFound(r.Text(), r.owner))
		return zero, r.err
	}
	r.state = Resolved
	r.target = t
	return t, nil
}

// Text renders the reference for signatures and diagnostics: the syntax as
// written when there is one, otherwise the qualified name of the target.
func (r *Reference[T]) Text() string {
	if r == nil {
		return ""
	}
	if r.syntax != nil {
		return r.syntax.String()
	}
	if e, ok := any(r.target).(Entity); ok && r.state == Resolved {
		return QualifiedName(e)
	}
	return "?"
}

// MapTypeReference derives a reference for a constructed entity: it resolves
// the template's reference and substitutes the result through m.
func MapTypeReference(ref *Reference[TypeEntity], owner Entity, m *TypeParameterMap) *Reference[TypeEntity] {
	if ref == nil {
		return nil
	}
	if t, ok := ref.Target(); ok {
		return ResolvedReference[TypeEntity](owner, m.MapType(t))
	}
	return NewReference[TypeEntity](owner, ref.syntax, ResolverFunc[TypeEntity](func(*Reference[TypeEntity]) (TypeEntity, error) {
		t, err := ref.Resolve()
		if err != nil {
			return nil, err
		}
		return m.MapType(t), nil
	}))
}

func isNilEntity(e any) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// Settle resolves the reference, discarding the target.
func (r *Reference[T]) Settle() error {
	_, err := r.Resolve()
	return err
}

// Settler is the type-erased resolution handle of a reference.
type Settler interface {
	State() ResolutionState
	Settle() error
}

// ReferenceInfo is a type-erased view of a reference, used for reports and snapshots.
type ReferenceInfo struct {
	Role   string
	State  ResolutionState
	Target Entity
	Syntax ir.Node
	Err    error
	Ref    Settler
}

func referenceInfo[T Entity](role string, r *Reference[T]) (ReferenceInfo, bool) {
	if r == nil {
		return ReferenceInfo{}, false
	}
	info := ReferenceInfo{Role: role, State: r.state, Syntax: r.syntax, Err: r.err, Ref: r}
	if t, ok := r.Target(); ok {
		info.Target = t
	}
	return info, true
}

// Referencing is implemented by entities that hold outgoing references.
type Referencing interface {
	References() []ReferenceInfo
}

type refCollector []ReferenceInfo

func collect[T Entity](c *refCollector, role string, r *Reference[T]) {
	if info, ok := referenceInfo(role, r); ok {
		*c = append(*c, info)
	}
}
