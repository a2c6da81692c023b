package schema

import (
	"sort"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"richdoc/dom"
)

// Shape selects nodes a conversion rule applies to. Property value "*"
// matches any value.
type Shape struct {
	Name       string            `yaml:"name"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
	Styles     map[string]string `yaml:"styles,omitempty"`
}

// Target describes node produced by a conversion rule.
type Target struct {
	Name               string            `yaml:"name"`
	Attributes         map[string]string `yaml:"attributes,omitempty"`
	Styles             map[string]string `yaml:"styles,omitempty"`
	KeepAttributes     bool              `yaml:"keep_attributes,omitempty"`
	KeepStyles         bool              `yaml:"keep_styles,omitempty"`
	AttributesToStyles map[string]string `yaml:"attributes_to_styles,omitempty"`
}

// ConversionRule rewrites legacy shape into canonical one.
type ConversionRule struct {
	From Shape  `yaml:"from"`
	To   Target `yaml:"to"`
}

// Conversion is an ordered list of conversion rules.
type Conversion struct {
	log   *zap.Logger
	rules []ConversionRule
}

// Converted is the rewritten shape of a node.
type Converted struct {
	Rule   int
	Name   string
	Attrs  dom.Attrs
	Styles dom.Attrs
}

// NewConversion creates conversion with given rules.
func NewConversion(log *zap.Logger, rules ...ConversionRule) *Conversion {
	if log == nil {
		log = zap.NewNop()
	}
	return &Conversion{log: log.Named("conversion"), rules: rules}
}

// Add appends rules.
func (c *Conversion) Add(rules ...ConversionRule) {
	c.rules = append(c.rules, rules...)
}

// Rules returns configured rules.
func (c *Conversion) Rules() []ConversionRule {
	return append([]ConversionRule(nil), c.rules...)
}

// Transform finds first rule not excluded by skip matching the node and
// returns rewritten shape.
func (c *Conversion) Transform(t *dom.Tree, id dom.NodeID, skip func(rule int) bool) (Converted, bool) {
	if c == nil || !t.IsElement(id) {
		return Converted{}, false
	}
	attrs, styles := t.Attrs(id), t.Styles(id)
	for i := range c.rules {
		if skip != nil && skip(i) {
			continue
		}
		rule := &c.rules[i]
		if rule.From.Name != t.Name(id) || !matchProps(rule.From.Attributes, attrs) || !matchProps(rule.From.Styles, styles) {
			continue
		}
		out := Converted{Rule: i, Name: rule.To.Name}
		if out.Name == "" {
			out.Name = t.Name(id)
		}
		if rule.To.KeepAttributes {
			for _, a := range attrs {
				if _, consumed := rule.From.Attributes[a.Key]; consumed {
					continue
				}
				if _, moved := rule.To.AttributesToStyles[a.Key]; moved {
					continue
				}
				out.Attrs.Set(a.Key, a.Val)
			}
		}
		if rule.To.KeepStyles {
			for _, s := range styles {
				if _, consumed := rule.From.Styles[s.Key]; !consumed {
					out.Styles.Set(s.Key, s.Val)
				}
			}
		}
		for _, k := range sortedKeys(rule.To.AttributesToStyles) {
			if v, ok := attrs.Get(k); ok && v != "" {
				out.Styles.Set(rule.To.AttributesToStyles[k], v)
			}
		}
		for _, k := range sortedKeys(rule.To.Attributes) {
			out.Attrs.Set(k, rule.To.Attributes[k])
		}
		for _, k := range sortedKeys(rule.To.Styles) {
			out.Styles.Set(k, rule.To.Styles[k])
		}
		c.log.Debug("Conversion matched", zap.Int("rule", i), zap.String("from", t.Name(id)), zap.String("to", out.Name))
		return out, true
	}
	return Converted{}, false
}

func matchProps(want map[string]string, have dom.Attrs) bool {
	for k, v := range want {
		got, ok := have.Get(k)
		if !ok || (v != "*" && v != got) {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))
	return keys
}
