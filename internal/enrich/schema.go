// Package enrich implements field-completion reconciliation: detecting missing
// attributes, retrying the external source for just those, merging untrusted
// results and persisting them with a single upsert.
package enrich

import (
	_ "embed"
	"fmt"

	"github.com/goccy/go-yaml"

	"hotel_enricher/internal/domain"
)

//go:embed schema.yaml
var schemaYAML []byte

type Group string

const (
	GroupPrimary  Group = "primary"
	GroupThematic Group = "thematic"
)

type FieldDescriptor struct {
	Name        string `yaml:"name"`
	Group       Group  `yaml:"group"`
	Description string `yaml:"description"`
}

// Schema is the ordered, immutable set of recognised fields.
type Schema struct {
	fields []FieldDescriptor
	index  map[string]int
}

func NewSchema(fields []FieldDescriptor) (*Schema, error) {
	s := &Schema{
		fields: make([]FieldDescriptor, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("schema: empty field name")
		}
		if f.Name == domain.IDField {
			return nil, fmt.Errorf("schema: %q is reserved", f.Name)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate field %q", f.Name)
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// ParseSchema reads a YAML document of the form `fields: [{name, group, description}]`.
func ParseSchema(doc []byte) (*Schema, error) {
	var raw struct {
		Fields []FieldDescriptor `yaml:"fields"`
	}
	if err := yaml.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return NewSchema(raw.Fields)
}

var defaultSchema = mustParse(schemaYAML)

func mustParse(doc []byte) *Schema {
	s, err := ParseSchema(doc)
	if err != nil {
		panic(err)
	}
	return s
}

// DefaultSchema returns the embedded hotel field schema.
func DefaultSchema() *Schema { return defaultSchema }

// Names returns the field names in schema order. The slice is a copy.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

func (s *Schema) Fields() []FieldDescriptor {
	return append([]FieldDescriptor(nil), s.fields...)
}

func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *Schema) Descriptor(name string) (FieldDescriptor, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return s.fields[i], true
}

func (s *Schema) Len() int { return len(s.fields) }
