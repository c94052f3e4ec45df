package catalog

import (
	"fmt"
	"slices"
	"time"

	"mercator-hq/tabular/pkg/cistring"
	"mercator-hq/tabular/pkg/tabular"

	"gopkg.in/yaml.v3"
)

// Definition is a named, reusable export: a query plus the column mapping
// and encoding used to turn its result into CSV.
type Definition struct {
	// Name identifies the export in URLs and on the command line.
	Name string `yaml:"name" json:"name"`

	// Description is shown in listings.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Query is the SQL statement producing the rows.
	Query string `yaml:"query" json:"query"`

	// Columns is the ordered column mapping.
	Columns ColumnList `yaml:"columns" json:"columns"`

	// QuoteEscaping overrides the configured default when set.
	QuoteEscaping *bool `yaml:"quote_escaping,omitempty" json:"quote_escaping,omitempty"`

	// Encoding overrides the configured text encoding when set.
	Encoding string `yaml:"encoding,omitempty" json:"encoding,omitempty"`

	// LineEnding overrides the configured line ending when set.
	LineEnding string `yaml:"line_ending,omitempty" json:"line_ending,omitempty"`

	// Schedule is a cron expression for scheduled runs.
	Schedule string `yaml:"schedule,omitempty" json:"schedule,omitempty"`

	// Output is the file written by scheduled runs.
	Output string `yaml:"output,omitempty" json:"output,omitempty"`

	mapping *tabular.Mapping
}

// Mapping returns the validated column mapping.
func (d *Definition) Mapping() *tabular.Mapping {
	return d.mapping
}

// Scheduled reports whether the definition runs on a schedule.
func (d *Definition) Scheduled() bool {
	return d.Schedule != ""
}

// ColumnList is the columns field of a definition. In YAML it is either a
// compact string ("id=ID,name=Name") or a sequence whose items are compact
// strings or {source, heading} maps.
type ColumnList []tabular.Column

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *ColumnList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		m, err := tabular.ParseMapping(value.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		*c = m.Columns()
		return nil

	case yaml.SequenceNode:
		cols := make(ColumnList, 0, len(value.Content))
		for _, item := range value.Content {
			switch item.Kind {
			case yaml.ScalarNode:
				m, err := tabular.ParseMapping(item.Value)
				if err != nil {
					return fmt.Errorf("line %d: %w", item.Line, err)
				}
				cols = append(cols, m.Columns()...)
			case yaml.MappingNode:
				var col tabular.Column
				if err := item.Decode(&col); err != nil {
					return err
				}
				cols = append(cols, col)
			default:
				return fmt.Errorf("line %d: column must be a string or a {source, heading} map", item.Line)
			}
		}
		*c = cols
		return nil
	}

	return fmt.Errorf("line %d: columns must be a string or a list", value.Line)
}

// file is the on-disk catalog layout.
type file struct {
	Exports []*Definition `yaml:"exports"`
}

// Catalog is an immutable set of export definitions.
type Catalog struct {
	// Path is the file the catalog was loaded from, if any.
	Path string

	// LoadedAt is when the catalog was parsed.
	LoadedAt time.Time

	definitions []*Definition
	index       map[string]*Definition
}

// New builds a catalog from definitions after validating each one.
func New(defs ...*Definition) (*Catalog, error) {
	c := &Catalog{
		LoadedAt: time.Now(),
		index:    make(map[string]*Definition, len(defs)),
	}

	for i, def := range defs {
		if err := validateDefinition(i, def); err != nil {
			return nil, err
		}

		key := cistring.New(def.Name).Key()
		if _, exists := c.index[key]; exists {
			return nil, &DefinitionError{
				Index:   i,
				Name:    def.Name,
				Field:   "name",
				Message: "name already used",
				Cause:   ErrDuplicateName,
			}
		}
		c.index[key] = def
		c.definitions = append(c.definitions, def)
	}

	slices.SortStableFunc(c.definitions, func(a, b *Definition) int {
		return cistring.Compare(cistring.New(a.Name), cistring.New(b.Name))
	})

	return c, nil
}

// Get returns the definition named name, ignoring case.
func (c *Catalog) Get(name string) (*Definition, error) {
	if c != nil {
		if def, ok := c.index[cistring.New(name).Key()]; ok {
			return def, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// List returns every definition ordered by name, ignoring case.
func (c *Catalog) List() []*Definition {
	if c == nil {
		return nil
	}
	return slices.Clone(c.definitions)
}

// Search returns the definitions whose name or description contains term,
// ignoring case.
func (c *Catalog) Search(term string) []*Definition {
	if term == "" {
		return c.List()
	}
	var out []*Definition
	for _, def := range c.List() {
		if cistring.New(def.Name).Contains(term) || cistring.New(def.Description).Contains(term) {
			out = append(out, def)
		}
	}
	return out
}

// Scheduled returns the definitions that carry a schedule.
func (c *Catalog) Scheduled() []*Definition {
	var out []*Definition
	for _, def := range c.List() {
		if def.Scheduled() {
			out = append(out, def)
		}
	}
	return out
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.definitions)
}
