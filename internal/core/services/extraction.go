package services

import (
	"strings"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
)

// Extractor flattens content records into search documents.
// It never fails: data that does not match the configured shape yields nothing.
type Extractor struct {
	contentTransforms driven.Transformers
	functions         driven.Transformers
}

// NewExtractor creates an extractor. contentTransforms resolves the per-field
// "transform" names (e.g. markdown); functions resolves "transformerFunction"
// names. Either may be nil, in which case the named step is skipped.
func NewExtractor(contentTransforms, functions driven.Transformers) *Extractor {
	return &Extractor{
		contentTransforms: contentTransforms,
		functions:         functions,
	}
}

// Extract builds the search document for record.
func (e *Extractor) Extract(record domain.ContentRecord, rules []domain.FieldRule) domain.Document {
	doc := make(domain.Document, len(rules))
	for i := range rules {
		rule := &rules[i]
		raw, present := record[rule.Attribute]

		var val any
		if rule.Kind == domain.RuleScalar {
			if !present && rule.TransformerFunction == "" {
				continue
			}
			val = e.transform(rule.Transform, raw)
		} else {
			val = strings.TrimSpace(e.ExtractSubfields(raw, rule.Subfields))
		}

		if rule.TransformerFunction != "" {
			val = apply(e.functions, rule.TransformerFunction, val)
		}
		doc[rule.OutputField] = val
	}
	return doc
}

// ExtractSubfields concatenates the text matched by rules in data, each
// fragment prefixed with a newline. Lists are walked element by element and
// discriminated elements only match rules naming their component.
func (e *Extractor) ExtractSubfields(data any, rules []domain.SubfieldRule) string {
	if data == nil || len(rules) == 0 {
		return ""
	}

	var b strings.Builder
	if items, ok := domain.AsList(data); ok {
		for _, item := range items {
			obj, ok := domain.AsObject(item)
			if !ok {
				continue
			}
			component, tagged := obj[domain.ComponentKey]
			for i := range rules {
				rule := &rules[i]
				if tagged && domain.ValueString(component) != rule.Component {
					continue
				}
				e.appendField(&b, obj, rule)
			}
		}
		return b.String()
	}

	obj, ok := domain.AsObject(data)
	if !ok {
		return ""
	}
	for i := range rules {
		e.appendField(&b, obj, &rules[i])
	}
	return b.String()
}

func (e *Extractor) appendField(b *strings.Builder, obj map[string]any, rule *domain.SubfieldRule) {
	val := obj[rule.Field]
	if rule.Nested {
		b.WriteString("\n")
		b.WriteString(e.ExtractSubfields(val, rule.Subfields))
		return
	}
	if domain.IsFalsy(val) {
		return
	}
	b.WriteString("\n")
	b.WriteString(domain.ValueString(e.transform(rule.Transform, val)))
}

func (e *Extractor) transform(name string, val any) any {
	if name == "" {
		return val
	}
	return apply(e.contentTransforms, name, val)
}

// apply runs a named transform, leaving val unchanged when the name is unknown.
func apply(t driven.Transformers, name string, val any) any {
	if t == nil {
		return val
	}
	out, ok := t.Apply(name, val)
	if !ok {
		return val
	}
	return out
}
