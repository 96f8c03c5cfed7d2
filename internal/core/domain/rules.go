package domain

// RuleKind tags the variant of a parsed attribute rule.
type RuleKind int

// Rule kinds.
const (
	// RuleScalar reads the attribute value directly.
	RuleScalar RuleKind = iota

	// RuleComposite extracts text from a nested component object.
	RuleComposite

	// RuleDynamicZone extracts text from a list of discriminated components.
	RuleDynamicZone
)

// String returns the kind name.
func (k RuleKind) String() string {
	switch k {
	case RuleScalar:
		return "scalar"
	case RuleComposite:
		return "composite"
	case RuleDynamicZone:
		return "dynamiczone"
	default:
		return "unknown"
	}
}

// FieldRule is one indexed attribute, parsed once from configuration.
type FieldRule struct {
	Kind RuleKind

	// Attribute is the source attribute name.
	Attribute string

	// OutputField is the key written into the search document.
	OutputField string

	// Transform is the content transform for scalar values.
	Transform string

	// TransformerFunction is applied to the final value.
	TransformerFunction string

	// Subfields are the nested rules for composite and dynamic-zone kinds.
	Subfields []SubfieldRule
}

// SubfieldRule is a nested extraction rule.
type SubfieldRule struct {
	// Component is the discriminator matched against list elements. Empty matches nothing
	// in discriminated elements and everything in undiscriminated ones.
	Component string

	Field     string
	Transform string

	// Nested is true when Subfields were declared; the field is then recursed into.
	Nested    bool
	Subfields []SubfieldRule
}

// ParseRules converts the persisted config into the typed rule tree.
// Only indexed attributes produce rules; declaration order is kept.
func ParseRules(cfg CollectionConfig) []FieldRule {
	rules := make([]FieldRule, 0, len(cfg))
	for _, ac := range cfg {
		if !ac.Config.Indexed {
			continue
		}
		rule := FieldRule{
			Kind:                RuleScalar,
			Attribute:           ac.Attribute,
			OutputField:         ac.Attribute,
			Transform:           ac.Config.Transform,
			TransformerFunction: ac.Config.TransformerFunction,
		}
		if ac.Config.SearchFieldName != "" {
			rule.OutputField = ac.Config.SearchFieldName
		}
		if ac.Config.HasSubfields {
			rule.Subfields = parseSubfields(ac.Config.Subfields)
			rule.Kind = RuleComposite
			if hasDiscriminator(rule.Subfields) {
				rule.Kind = RuleDynamicZone
			}
		}
		rules = append(rules, rule)
	}
	return rules
}

func parseSubfields(cfgs []SubfieldConfig) []SubfieldRule {
	if len(cfgs) == 0 {
		return nil
	}
	out := make([]SubfieldRule, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, SubfieldRule{
			Component: c.Component,
			Field:     c.Field,
			Transform: c.Transform,
			Nested:    c.HasSubfields,
			Subfields: parseSubfields(c.Subfields),
		})
	}
	return out
}

func hasDiscriminator(rules []SubfieldRule) bool {
	for _, r := range rules {
		if r.Component != "" {
			return true
		}
	}
	return false
}
