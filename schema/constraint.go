package schema

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"richdoc/css"
)

// ConstraintKind selects how constraint checks values.
type ConstraintKind uint8

const (
	ConstraintAny ConstraintKind = iota
	ConstraintNumber
	ConstraintLength
	ConstraintColor
	ConstraintURL
	ConstraintValues
)

var kindNames = map[string]ConstraintKind{
	"@number": ConstraintNumber,
	"@length": ConstraintLength,
	"@color":  ConstraintColor,
	"@url":    ConstraintURL,
}

// Constraint limits values of a single attribute or style property. Absent
// constraint means the property is not allowed.
type Constraint struct {
	Kind     ConstraintKind
	Values   []string
	Required bool
}

// Any accepts any value.
func Any() Constraint { return Constraint{Kind: ConstraintAny} }

// OneOf accepts listed values.
func OneOf(values ...string) Constraint { return Constraint{Kind: ConstraintValues, Values: values} }

// Require makes presence of exact value mandatory for the rule to match.
func Require(value string) Constraint {
	return Constraint{Kind: ConstraintValues, Values: []string{value}, Required: true}
}

// Check reports whether value is acceptable.
func (c Constraint) Check(value string) bool {
	switch c.Kind {
	case ConstraintAny:
		return true
	case ConstraintNumber:
		return css.IsNumber(value)
	case ConstraintLength:
		return css.IsLength(value)
	case ConstraintColor:
		return css.IsColor(value)
	case ConstraintURL:
		return css.IsURL(value)
	case ConstraintValues:
		return slices.Contains(c.Values, strings.TrimSpace(value))
	}
	return false
}

func (c Constraint) String() string {
	switch c.Kind {
	case ConstraintAny:
		return "*"
	case ConstraintValues:
		if c.Required {
			return "required:" + strings.Join(c.Values, "|")
		}
		return strings.Join(c.Values, "|")
	}
	for k, v := range kindNames {
		if v == c.Kind {
			return k
		}
	}
	return "?"
}

// UnmarshalYAML accepts "*", "@kind", a single value, a list of values or a
// mapping {required: bool, value: string}.
func (c *Constraint) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		switch v := node.Value; {
		case v == "*":
			*c = Any()
		case strings.HasPrefix(v, "@"):
			kind, ok := kindNames[v]
			if !ok {
				return fmt.Errorf("line %d: unknown constraint kind %q", node.Line, v)
			}
			*c = Constraint{Kind: kind}
		default:
			*c = OneOf(v)
		}
	case yaml.SequenceNode:
		var values []string
		if err := node.Decode(&values); err != nil {
			return fmt.Errorf("line %d: unable to decode constraint values: %w", node.Line, err)
		}
		*c = OneOf(values...)
	case yaml.MappingNode:
		var m struct {
			Required bool   `yaml:"required"`
			Value    string `yaml:"value"`
		}
		if err := node.Decode(&m); err != nil {
			return fmt.Errorf("line %d: unable to decode constraint: %w", node.Line, err)
		}
		if m.Value == "" || m.Value == "*" {
			*c = Any()
		} else {
			*c = OneOf(m.Value)
		}
		c.Required = m.Required
	default:
		return fmt.Errorf("line %d: unexpected constraint node", node.Line)
	}
	return nil
}

// MarshalYAML mirrors UnmarshalYAML.
func (c Constraint) MarshalYAML() (any, error) {
	if c.Required {
		value := "*"
		if len(c.Values) > 0 {
			value = c.Values[0]
		}
		return map[string]any{"required": true, "value": value}, nil
	}
	switch c.Kind {
	case ConstraintAny:
		return "*", nil
	case ConstraintValues:
		if len(c.Values) == 1 {
			return c.Values[0], nil
		}
		return c.Values, nil
	}
	return c.String(), nil
}
