package parts

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// KindSpec describes one part kind in the catalog.
type KindSpec struct {
	Kind        Kind   `yaml:"kind"`
	Prefix      string `yaml:"prefix"`
	Polarized   bool   `yaml:"polarized"`
	ConnectsTo  []Kind `yaml:"connects_to"`
	Description string `yaml:"description"`
}

// Catalog is the validated set of part kinds and their rules.
type Catalog struct {
	IDDigits      int        `yaml:"id_digits"`
	Polarizations []string   `yaml:"polarizations"`
	Kinds         []KindSpec `yaml:"kinds"`

	byKind map[Kind]*KindSpec
	// prefixes sorted longest first so the most specific prefix wins.
	prefixes []*KindSpec
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("parts: built-in catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads and validates a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog validates YAML catalog data against the CUE schema and builds
// the lookup tables.
func ParseCatalog(data []byte) (*Catalog, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func validateSchema(raw any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile catalog schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Catalog"))
	value := def.Unify(ctx.Encode(raw))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validate catalog: %w", err)
	}
	return nil
}

// index builds lookup tables and checks rules the schema cannot express.
func (c *Catalog) index() error {
	c.byKind = make(map[Kind]*KindSpec, len(c.Kinds))
	seenPrefix := make(map[string]Kind, len(c.Kinds))

	for i := range c.Kinds {
		spec := &c.Kinds[i]
		if _, dup := c.byKind[spec.Kind]; dup {
			return fmt.Errorf("catalog: kind %s listed twice", spec.Kind)
		}
		if other, dup := seenPrefix[spec.Prefix]; dup {
			return fmt.Errorf("catalog: prefix %q used by both %s and %s", spec.Prefix, other, spec.Kind)
		}
		c.byKind[spec.Kind] = spec
		seenPrefix[spec.Prefix] = spec.Kind
		c.prefixes = append(c.prefixes, spec)
	}

	for _, spec := range c.Kinds {
		for _, target := range spec.ConnectsTo {
			if _, ok := c.byKind[target]; !ok {
				return fmt.Errorf("catalog: %s connects_to unknown kind %s", spec.Kind, target)
			}
		}
	}

	sort.SliceStable(c.prefixes, func(i, j int) bool {
		return len(c.prefixes[i].Prefix) > len(c.prefixes[j].Prefix)
	})
	return nil
}

// Spec returns the catalog entry for kind.
func (c *Catalog) Spec(kind Kind) (KindSpec, bool) {
	spec, ok := c.byKind[kind]
	if !ok {
		return KindSpec{}, false
	}
	return *spec, true
}

// CanConnect reports whether a part of kind from may connect to a part of
// kind to.
func (c *Catalog) CanConnect(from, to Kind) bool {
	spec, ok := c.byKind[from]
	if !ok {
		return false
	}
	for _, k := range spec.ConnectsTo {
		if k == to {
			return true
		}
	}
	return false
}

// ValidPolarization reports whether tag is an accepted polarization. The
// empty tag means "none" and is always valid.
func (c *Catalog) ValidPolarization(tag string) bool {
	if tag == "" {
		return true
	}
	tag = Normalize(tag)
	for _, p := range c.Polarizations {
		if p == tag {
			return true
		}
	}
	return false
}
