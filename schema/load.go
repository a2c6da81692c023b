package schema

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultDefinition []byte

// Definition is serialized form of schema and conversion rules.
type Definition struct {
	Rules       []Rule           `yaml:"rules"`
	Globals     []Global         `yaml:"globals,omitempty"`
	Void        []string         `yaml:"void,omitempty"`
	Conversions []ConversionRule `yaml:"conversions,omitempty"`
}

// Load decodes definition, unknown fields are errors.
func Load(r io.Reader) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unable to decode schema definition: %w", err)
	}
	for i, r := range def.Rules {
		if r.Name == "" || r.Type == TypeNone {
			return nil, fmt.Errorf("schema rule %d: name and type are required", i)
		}
	}
	return &def, nil
}

// LoadFile reads definition from file.
func LoadFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open schema file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// DefaultDefinition returns built-in definition.
func DefaultDefinition() *Definition {
	def, err := Load(bytes.NewReader(defaultDefinition))
	if err != nil {
		panic(fmt.Sprintf("built-in schema is broken: %v", err))
	}
	return def
}

// DefaultDefinitionBytes returns built-in definition as YAML.
func DefaultDefinitionBytes() []byte {
	return bytes.Clone(defaultDefinition)
}

// Build creates schema and conversion described by the definition.
func (d *Definition) Build(log *zap.Logger) (*Schema, *Conversion) {
	s := New(log)
	s.Add(d.Rules...)
	s.AddGlobal(d.Globals...)
	if len(d.Void) > 0 {
		s.SetVoid(d.Void...)
	}
	return s, NewConversion(log, d.Conversions...)
}

// Merge appends rules of other definition, its void set replaces ours when
// not empty.
func (d *Definition) Merge(other *Definition) {
	if other == nil {
		return
	}
	d.Rules = append(d.Rules, other.Rules...)
	d.Globals = append(d.Globals, other.Globals...)
	d.Conversions = append(d.Conversions, other.Conversions...)
	if len(other.Void) > 0 {
		d.Void = other.Void
	}
}

// Default returns schema and conversion built from built-in definition.
func Default(log *zap.Logger) (*Schema, *Conversion) {
	return DefaultDefinition().Build(log)
}
