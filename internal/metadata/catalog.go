package metadata

import (
	_ "embed"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog describes the host types a program can use without declaring them.
type Catalog struct {
	Program string    `yaml:"program"`
	Types   []TypeDef `yaml:"types"`
}

// TypeDef is one catalog type. Name is namespace-qualified.
type TypeDef struct {
	Name           string      `yaml:"name"`
	Kind           string      `yaml:"kind"`
	TypeParameters []string    `yaml:"type_parameters"`
	Base           []string    `yaml:"base"`
	Members        []MemberDef `yaml:"members"`
}

// MemberDef is a field, constant, property or method of a catalog type.
type MemberDef struct {
	Kind       string         `yaml:"kind"`
	Name       string         `yaml:"name"`
	Type       string         `yaml:"type"`
	Value      string         `yaml:"value"`
	Static     bool           `yaml:"static"`
	Parameters []ParameterDef `yaml:"parameters"`
}

type ParameterDef struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Modifier string `yaml:"modifier"`
}

var (
	typeKinds   = map[string]bool{"class": true, "struct": true, "interface": true, "enum": true}
	memberKinds = map[string]bool{"field": true, "constant": true, "property": true, "method": true}
)

// DefaultCatalog returns the embedded core library catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read catalog %s", path)
	}
	cat, err := ParseCatalog(data)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %s", path)
	}
	return cat, nil
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, errors.Wrap(err, "parse catalog")
	}
	if cat.Program == "" {
		cat.Program = "mscorlib"
	}
	if err := cat.validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Catalog) validate() error {
	seen := make(map[string]bool, len(c.Types))
	for i, t := range c.Types {
		if t.Name == "" || strings.HasPrefix(t.Name, ".") || strings.HasSuffix(t.Name, ".") {
			return errors.Errorf("type #%d: invalid name %q", i, t.Name)
		}
		if !typeKinds[t.Kind] {
			return errors.Errorf("type %s: unknown kind %q", t.Name, t.Kind)
		}
		key := typeKey(t.Name, len(t.TypeParameters))
		if seen[key] {
			return errors.Errorf("type %s declared twice", key)
		}
		seen[key] = true
		for _, m := range t.Members {
			if m.Name == "" || !memberKinds[m.Kind] {
				return errors.Errorf("type %s: invalid member %q of kind %q", t.Name, m.Name, m.Kind)
			}
			if m.Type == "" {
				return errors.Errorf("member %s.%s has no type", t.Name, m.Name)
			}
		}
	}
	return nil
}
