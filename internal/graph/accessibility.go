package graph

// Accessibility is ordered from narrowest to widest.
type Accessibility int

const (
	AccessibilityNotSet Accessibility = iota
	Private
	FamilyAndAssembly
	Family
	Assembly
	FamilyOrAssembly
	Public
)

func (a Accessibility) String() string {
	switch a {
	case Private:
		return "private"
	case FamilyAndAssembly:
		return "private protected"
	case Family:
		return "protected"
	case Assembly:
		return "internal"
	case FamilyOrAssembly:
		return "protected internal"
	case Public:
		return "public"
	default:
		return "unset"
	}
}

// AccessibilityFromModifiers reads the declared accessibility from modifier keywords.
// ok is false when no accessibility keyword is present.
func AccessibilityFromModifiers(mods []string) (Accessibility, bool) {
	has := make(map[string]bool, len(mods))
	for _, m := range mods {
		has[m] = true
	}
	switch {
	case has["public"]:
		return Public, true
	case has["protected"] && has["internal"]:
		return FamilyOrAssembly, true
	case has["private"] && has["protected"]:
		return FamilyAndAssembly, true
	case has["protected"]:
		return Family, true
	case has["internal"]:
		return Assembly, true
	case has["private"]:
		return Private, true
	}
	return AccessibilityNotSet, false
}

// HasAccessibility is implemented by declared types and members.
type HasAccessibility interface {
	Entity
	DeclaredAccessibility() (Accessibility, bool)
	SetDeclaredAccessibility(a Accessibility)
}

type accessibilityHolder struct {
	declared Accessibility
}

func (h *accessibilityHolder) DeclaredAccessibility() (Accessibility, bool) {
	return h.declared, h.declared != AccessibilityNotSet
}

func (h *accessibilityHolder) SetDeclaredAccessibility(a Accessibility) { h.declared = a }

// EffectiveAccessibility returns the declared accessibility, or the default for
// the kind of container e sits in. ok is false when e has no container.
func EffectiveAccessibility(e HasAccessibility) (Accessibility, bool) {
	if a, ok := e.DeclaredAccessibility(); ok {
		return a, true
	}
	parent := e.Parent()
	if parent == nil {
		return AccessibilityNotSet, false
	}
	if _, ok := e.(*AccessorEntity); ok {
		if owner, ok := parent.(HasAccessibility); ok {
			return EffectiveAccessibility(owner)
		}
		return AccessibilityNotSet, false
	}
	switch parent.(type) {
	case *NamespaceEntity:
		return Assembly, true
	case *InterfaceEntity, *EnumEntity:
		return Public, true
	case TypeEntity:
		return Private, true
	}
	return AccessibilityNotSet, false
}

// IsAccessibleBy reports whether accessor may refer to target.
//
// The container chain of target is checked first: a member of an inaccessible
// type is inaccessible whatever its own accessibility. An entity whose effective
// accessibility cannot be determined fails with UNDEFINED_ACCESSIBILITY.
func IsAccessibleBy(target, accessor Entity) (bool, error) {
	switch t := target.(type) {
	case nil:
		return false, nil
	case *ArrayTypeEntity:
		return IsAccessibleBy(t.ElementType(), accessor)
	case *PointerTypeEntity:
		return IsAccessibleBy(t.UnderlyingType(), accessor)
	case *NullableTypeEntity:
		return IsAccessibleBy(t.UnderlyingType(), accessor)
	case *BuiltInTypeEntity, *TypeParameterEntity, *NamespaceEntity:
		return true, nil
	}

	if _, ok := target.(TypeEntity); ok && IsConstructed(target) {
		for _, pair := range target.TypeParameterMap().Pairs() {
			if pair.Argument == nil {
				continue
			}
			ok, err := IsAccessibleBy(pair.Argument, accessor)
			if err != nil || !ok {
				return false, err
			}
		}
	}

	h, ok := target.(HasAccessibility)
	if !ok {
		return true, nil
	}

	if p, ok := target.Parent().(HasAccessibility); ok {
		accessible, err := IsAccessibleBy(p, accessor)
		if err != nil || !accessible {
			return false, err
		}
	}

	acc, ok := EffectiveAccessibility(h)
	if !ok {
		return false, errUndefinedAccessibility(target)
	}
	container := EnclosingType(target)

	switch acc {
	case Public:
		return true, nil
	case Assembly:
		return sameProgram(target, accessor), nil
	case FamilyOrAssembly:
		return sameProgram(target, accessor) || inFamily(container, accessor), nil
	case FamilyAndAssembly:
		return sameProgram(target, accessor) && inFamily(container, accessor), nil
	case Family:
		return inFamily(container, accessor), nil
	case Private:
		if container == nil {
			return sameProgram(target, accessor), nil
		}
		return withinLexically(container, accessor), nil
	}
	return false, errUndefinedAccessibility(target)
}

func sameProgram(a, b Entity) bool {
	pa, pb := a.Program(), b.Program()
	return pa != nil && pa == pb
}

// withinLexically reports whether accessor is declared inside container.
func withinLexically(container, accessor Entity) bool {
	want := OriginalDefinition(container)
	for e := accessor; e != nil; e = e.Parent() {
		if OriginalDefinition(e) == want {
			return true
		}
	}
	return false
}

// inFamily reports whether any type enclosing accessor is container or derives from it.
func inFamily(container TypeEntity, accessor Entity) bool {
	if container == nil {
		return false
	}
	for e := accessor; e != nil; e = e.Parent() {
		t, ok := e.(TypeEntity)
		if !ok {
			continue
		}
		if IsSameOrDerivedFrom(t, container) {
			return true
		}
	}
	return false
}
