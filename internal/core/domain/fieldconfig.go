package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldIndexConfig is the persisted indexing rule for one attribute.
type FieldIndexConfig struct {
	// Indexed includes the attribute in search documents.
	Indexed bool

	// SearchFieldName renames the output key. Empty keeps the attribute name.
	SearchFieldName string

	// TransformerFunction names a registered transform applied just before writing.
	TransformerFunction string

	// Transform names a content transform for scalar values, e.g. "markdown".
	Transform string

	// Subfields are the nested extraction rules for components and dynamic zones.
	Subfields []SubfieldConfig

	// HasSubfields is true when the rule declared subfields, even an empty list.
	HasSubfields bool
}

// SubfieldConfig is a nested extraction rule.
type SubfieldConfig struct {
	// Component is the dynamic-zone discriminator this rule matches.
	Component string

	// Field is the attribute read from the nested object.
	Field string

	// Transform names a content transform for the extracted value.
	Transform string

	// Subfields recurse into Field.
	Subfields []SubfieldConfig

	// HasSubfields is true when the rule declared subfields.
	HasSubfields bool
}

type fieldIndexConfigJSON struct {
	Index               bool            `json:"index"`
	SearchFieldName     string          `json:"searchFieldName,omitempty"`
	TransformerFunction string          `json:"transformerFunction,omitempty"`
	Transform           string          `json:"transform,omitempty"`
	Subfields           json.RawMessage `json:"subfields,omitempty"`
}

type subfieldConfigJSON struct {
	Component string          `json:"component,omitempty"`
	Field     string          `json:"field"`
	Transform string          `json:"transform,omitempty"`
	Subfields json.RawMessage `json:"subfields,omitempty"`
}

// UnmarshalJSON decodes a rule, unwrapping subfields stored as a serialised
// string of the form {"subfields": [...]}.
func (c *FieldIndexConfig) UnmarshalJSON(data []byte) error {
	var raw fieldIndexConfigJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	subfields, has, err := decodeSubfields(raw.Subfields)
	if err != nil {
		return err
	}
	*c = FieldIndexConfig{
		Indexed:             raw.Index,
		SearchFieldName:     raw.SearchFieldName,
		TransformerFunction: raw.TransformerFunction,
		Transform:           raw.Transform,
		Subfields:           subfields,
		HasSubfields:        has,
	}
	return nil
}

// MarshalJSON encodes the rule in its canonical form, subfields as a JSON array.
func (c FieldIndexConfig) MarshalJSON() ([]byte, error) {
	raw := fieldIndexConfigJSON{
		Index:               c.Indexed,
		SearchFieldName:     c.SearchFieldName,
		TransformerFunction: c.TransformerFunction,
		Transform:           c.Transform,
	}
	if c.HasSubfields || len(c.Subfields) > 0 {
		sub, err := marshalSubfields(c.Subfields)
		if err != nil {
			return nil, err
		}
		raw.Subfields = sub
	}
	return json.Marshal(raw)
}

// UnmarshalJSON decodes a nested rule.
func (c *SubfieldConfig) UnmarshalJSON(data []byte) error {
	var raw subfieldConfigJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	subfields, has, err := decodeSubfields(raw.Subfields)
	if err != nil {
		return err
	}
	*c = SubfieldConfig{
		Component:    raw.Component,
		Field:        raw.Field,
		Transform:    raw.Transform,
		Subfields:    subfields,
		HasSubfields: has,
	}
	return nil
}

// MarshalJSON encodes a nested rule.
func (c SubfieldConfig) MarshalJSON() ([]byte, error) {
	raw := subfieldConfigJSON{
		Component: c.Component,
		Field:     c.Field,
		Transform: c.Transform,
	}
	if c.HasSubfields || len(c.Subfields) > 0 {
		sub, err := marshalSubfields(c.Subfields)
		if err != nil {
			return nil, err
		}
		raw.Subfields = sub
	}
	return json.Marshal(raw)
}

func marshalSubfields(subfields []SubfieldConfig) (json.RawMessage, error) {
	if subfields == nil {
		subfields = []SubfieldConfig{}
	}
	return json.Marshal(subfields)
}

// decodeSubfields accepts an array, a serialised {"subfields": [...]} wrapper,
// a serialised array, or an empty string. Any other string decodes to an empty rule list.
func decodeSubfields(raw json.RawMessage) ([]SubfieldConfig, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false, nil
	}
	switch raw[0] {
	case '[':
		var subfields []SubfieldConfig
		if err := json.Unmarshal(raw, &subfields); err != nil {
			return nil, true, fmt.Errorf("decoding subfields: %w", err)
		}
		return subfields, true, nil
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, true, fmt.Errorf("decoding subfields: %w", err)
		}
		return unwrapSerialisedSubfields(text), true, nil
	default:
		return nil, true, fmt.Errorf("decoding subfields: %w", ErrInvalidInput)
	}
}

func unwrapSerialisedSubfields(text string) []SubfieldConfig {
	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '[' {
		var subfields []SubfieldConfig
		if err := json.Unmarshal(trimmed, &subfields); err == nil {
			return subfields
		}
		return nil
	}
	var wrapper struct {
		Subfields []SubfieldConfig `json:"subfields"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil
	}
	return wrapper.Subfields
}

// AttributeConfig pairs an attribute with its rule.
type AttributeConfig struct {
	Attribute string
	Config    FieldIndexConfig
}

// CollectionConfig is the ordered rule set of one collection.
type CollectionConfig []AttributeConfig

// IsEmpty reports whether no attribute is configured.
func (c CollectionConfig) IsEmpty() bool {
	return len(c) == 0
}

// Get returns the rule for an attribute.
func (c CollectionConfig) Get(attribute string) (FieldIndexConfig, bool) {
	for _, ac := range c {
		if ac.Attribute == attribute {
			return ac.Config, true
		}
	}
	return FieldIndexConfig{}, false
}

// UnmarshalJSON decodes a JSON object of attribute rules, preserving key order.
func (c *CollectionConfig) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoding collection config: %w", err)
	}
	if tok == nil {
		*c = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decoding collection config: expected object: %w", ErrInvalidInput)
	}

	var out CollectionConfig
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decoding collection config: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decoding collection config: %w", ErrInvalidInput)
		}
		var cfg FieldIndexConfig
		if err := dec.Decode(&cfg); err != nil {
			return fmt.Errorf("decoding attribute %s: %w", key, err)
		}
		out = append(out, AttributeConfig{Attribute: key, Config: cfg})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decoding collection config: %w", err)
	}
	*c = out
	return nil
}

// MarshalJSON encodes the rules as a JSON object in declaration order.
func (c CollectionConfig) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ac := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ac.Attribute)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(ac.Config)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseCollectionConfig decodes a persisted collection config.
func ParseCollectionConfig(data []byte) (CollectionConfig, error) {
	var cfg CollectionConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
