package metadata

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"sharpsem/internal/graph"
	"sharpsem/internal/ir"
)

// Provider imports a Catalog into a graph and serves it as the graph's host metadata.
// Until Import succeeds every query returns nil, and references that depend on
// host types stay unresolved.
type Provider struct {
	Logger *zap.Logger

	g        *graph.SemanticGraph
	catalog  *Catalog
	program  *graph.Program
	types    map[string]graph.TypeEntity
	imported bool
}

// New creates a provider for g and installs it as g's metadata.
func New(g *graph.SemanticGraph, cat *Catalog) *Provider {
	p := &Provider{
		Logger:  zap.NewNop(),
		g:       g,
		catalog: cat,
		types:   make(map[string]graph.TypeEntity),
	}
	g.SetMetadata(p)
	return p
}

// WithLogger sets the logger on the provider.
func (p *Provider) WithLogger(log *zap.Logger) {
	p.Logger = log.With(zap.String("component", "metadata"))
}

func (p *Provider) Imported() bool { return p.imported }

// Program is the program the catalog types belong to, or nil before Import.
func (p *Provider) Program() *graph.Program { return p.program }

// Import declares the catalog types in the graph. It is a no-op once it has succeeded.
func (p *Provider) Import() error {
	if p.imported {
		return nil
	}
	if p.catalog == nil {
		return errors.New("metadata: no catalog")
	}
	p.program = p.g.Program(p.catalog.Program)
	p.program.Imported = true

	declared := make([]graph.TypeEntity, 0, len(p.catalog.Types))
	for _, def := range p.catalog.Types {
		t, err := p.declare(def)
		if err != nil {
			return err
		}
		declared = append(declared, t)
	}
	// Types are complete only once every name is declared, so signatures come second.
	for i, def := range p.catalog.Types {
		if err := p.complete(declared[i], def); err != nil {
			return errors.Wrapf(err, "metadata: type %s", def.Name)
		}
	}
	p.imported = true
	p.Logger.Debug("Imported metadata",
		zap.String("program", p.program.Name),
		zap.Int("types", len(declared)))
	return nil
}

func (p *Provider) declare(def TypeDef) (graph.TypeEntity, error) {
	nsName, name := splitQualified(def.Name)
	var t graph.HasMembers
	switch def.Kind {
	case "class":
		t = p.g.NewClass(name)
	case "struct":
		t = p.g.NewStruct(name)
	case "interface":
		t = p.g.NewInterface(name)
	case "enum":
		t = p.g.NewEnum(name)
	default:
		return nil, errors.Errorf("metadata: type %s has unknown kind %q", def.Name, def.Kind)
	}
	t.SetProgram(p.program)
	if h, ok := t.(graph.HasAccessibility); ok {
		h.SetDeclaredAccessibility(graph.Public)
	}
	if gen, ok := t.(graph.CanHaveTypeParameters); ok {
		for _, tp := range def.TypeParameters {
			if err := gen.AddTypeParameter(p.g.NewTypeParameter(tp)); err != nil {
				return nil, errors.Wrapf(err, "metadata: type %s", def.Name)
			}
		}
	}
	if err := p.g.Global().Namespace(nsName).AddNestedType(t); err != nil {
		return nil, errors.Wrapf(err, "metadata: type %s", def.Name)
	}
	p.types[typeKey(def.Name, len(def.TypeParameters))] = t
	return t, nil
}

type baseAdder interface {
	AddBaseType(ref *graph.Reference[graph.TypeEntity]) error
}

func (p *Provider) complete(t graph.TypeEntity, def TypeDef) error {
	params := ownTypeParameters(t)
	for _, b := range def.Base {
		bt, err := p.resolve(b, params)
		if err != nil {
			return err
		}
		// Base lists name the declared type, not its keyword alias.
		if kw, ok := bt.(*graph.BuiltInTypeEntity); ok {
			bt = p.types[kw.BuiltIn().MetadataName()]
			if bt == nil {
				return errors.Errorf("base %s is not in the catalog", b)
			}
		}
		adder, ok := t.(baseAdder)
		if !ok {
			return errors.Errorf("%s cannot have base types", t.Kind())
		}
		if err := adder.AddBaseType(graph.ResolvedReference(t, bt)); err != nil {
			return err
		}
	}

	host, ok := t.(graph.HasMembers)
	if !ok {
		return nil
	}
	for _, md := range def.Members {
		m, err := p.member(md, params)
		if err != nil {
			return errors.Wrapf(err, "member %s", md.Name)
		}
		if a, ok := m.(graph.HasAccessibility); ok {
			a.SetDeclaredAccessibility(graph.Public)
		}
		if err := host.AddMember(m); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) member(md MemberDef, params []*graph.TypeParameterEntity) (graph.MemberEntity, error) {
	typ, err := p.resolve(md.Type, params)
	if err != nil {
		return nil, err
	}
	var mods graph.Modifiers
	if md.Static {
		mods |= graph.ModStatic
	}

	switch md.Kind {
	case "field":
		f := p.g.NewField(md.Name)
		f.SetType(graph.ResolvedReference(f, typ))
		f.SetModifiers(mods)
		return f, nil
	case "constant":
		c := p.g.NewConstant(md.Name, md.Value)
		c.SetType(graph.ResolvedReference(c, typ))
		c.SetModifiers(mods | graph.ModStatic)
		return c, nil
	case "property":
		prop := p.g.NewProperty(md.Name)
		prop.SetType(graph.ResolvedReference(prop, typ))
		prop.SetModifiers(mods)
		if err := prop.AddAccessor(p.g.NewAccessor("get")); err != nil {
			return nil, err
		}
		return prop, nil
	case "method":
		m := p.g.NewMethod(md.Name)
		m.SetReturnType(graph.ResolvedReference(m, typ))
		m.SetModifiers(mods)
		for _, pd := range md.Parameters {
			pt, err := p.resolve(pd.Type, params)
			if err != nil {
				return nil, err
			}
			param := p.g.NewParameter(pd.Name, graph.ParameterKindOf(pd.Modifier))
			param.SetType(graph.ResolvedReference(param, pt))
			if err := m.AddParameter(param); err != nil {
				return nil, err
			}
		}
		return m, nil
	}
	return nil, errors.Errorf("unknown member kind %q", md.Kind)
}

// resolve maps a catalog type string to an entity. Names are either keywords,
// type parameters of the declaring type, or fully qualified catalog types.
func (p *Provider) resolve(s string, params []*graph.TypeParameterEntity) (graph.TypeEntity, error) {
	syn, err := ir.ParseType(s)
	if err != nil {
		return nil, err
	}
	return p.resolveSyntax(syn, params)
}

func (p *Provider) resolveSyntax(syn *ir.TypeSyntax, params []*graph.TypeParameterEntity) (graph.TypeEntity, error) {
	var t graph.TypeEntity
	switch {
	case syn.BuiltIn != "":
		b, ok := graph.ParseBuiltInType(syn.BuiltIn)
		if !ok {
			return nil, errors.Errorf("unknown keyword type %q", syn.BuiltIn)
		}
		t = p.g.BuiltIn(b)
	case len(syn.Parts) == 1 && len(syn.Parts[0].TypeArgs) == 0 && typeParameterNamed(params, syn.Parts[0].Name) != nil:
		t = typeParameterNamed(params, syn.Parts[0].Name)
	default:
		names := make([]string, len(syn.Parts))
		for i, part := range syn.Parts {
			names[i] = part.Name
		}
		last := syn.Parts[len(syn.Parts)-1]
		key := typeKey(strings.Join(names, "."), len(last.TypeArgs))
		def, ok := p.types[key]
		if !ok {
			return nil, errors.Errorf("unknown catalog type %s", key)
		}
		t = def
		if len(last.TypeArgs) > 0 {
			args := make([]graph.TypeEntity, 0, len(last.TypeArgs))
			for _, a := range last.TypeArgs {
				at, err := p.resolveSyntax(a, params)
				if err != nil {
					return nil, err
				}
				args = append(args, at)
			}
			t = graph.Construct(t, graph.TypeParameterMapOf(ownTypeParameters(def), args))
		}
	}

	if syn.Nullable {
		t = graph.GetConstructedNullableType(t)
	}
	for i := 0; i < syn.PointerDepth; i++ {
		t = graph.GetConstructedPointerType(t)
	}
	for i := len(syn.ArrayRanks) - 1; i >= 0; i-- {
		t = graph.GetConstructedArrayType(t, syn.ArrayRanks[i])
	}
	return t, nil
}

// Lookup returns an imported type by qualified name and arity.
func (p *Provider) Lookup(name string, arity int) graph.TypeEntity {
	if !p.imported {
		return nil
	}
	return p.types[typeKey(name, arity)]
}

func (p *Provider) BuiltInType(b graph.BuiltInType) graph.TypeEntity {
	return p.Lookup(b.MetadataName(), 0)
}

func (p *Provider) ArrayBaseType() graph.TypeEntity {
	return p.Lookup("System.Array", 0)
}

func (p *Provider) NullableDefinition() graph.TypeEntity {
	return p.Lookup("System.Nullable", 1)
}

func ownTypeParameters(t graph.Entity) []*graph.TypeParameterEntity {
	g, ok := t.(graph.CanHaveTypeParameters)
	if !ok {
		return nil
	}
	params, err := g.TypeParameters()
	if err != nil {
		return nil
	}
	return params
}

func typeParameterNamed(params []*graph.TypeParameterEntity, name string) *graph.TypeParameterEntity {
	for _, tp := range params {
		if tp.Name() == name {
			return tp
		}
	}
	return nil
}

func typeKey(name string, arity int) string {
	if arity == 0 {
		return name
	}
	return name + "`" + strconv.Itoa(arity)
}

func splitQualified(name string) (ns, simple string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}
