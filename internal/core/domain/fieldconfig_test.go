package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCollectionConfig_PreservesOrder(t *testing.T) {
	data := []byte(`{
		"title": {"index": true},
		"body": {"index": true, "transform": "markdown", "searchFieldName": "content"},
		"slug": {"index": false},
		"author": {"index": true, "transformerFunction": "lowercase"}
	}`)

	cfg, err := ParseCollectionConfig(data)
	require.NoError(t, err)
	require.Len(t, cfg, 4)

	assert.Equal(t, "title", cfg[0].Attribute)
	assert.Equal(t, "body", cfg[1].Attribute)
	assert.Equal(t, "slug", cfg[2].Attribute)
	assert.Equal(t, "author", cfg[3].Attribute)

	body, ok := cfg.Get("body")
	require.True(t, ok)
	assert.True(t, body.Indexed)
	assert.Equal(t, "markdown", body.Transform)
	assert.Equal(t, "content", body.SearchFieldName)
	assert.False(t, body.HasSubfields)

	author, ok := cfg.Get("author")
	require.True(t, ok)
	assert.Equal(t, "lowercase", author.TransformerFunction)

	_, ok = cfg.Get("missing")
	assert.False(t, ok)
}

func TestParseCollectionConfig_SubfieldsArray(t *testing.T) {
	data := []byte(`{
		"sections": {"index": true, "searchFieldName": "information", "subfields": [
			{"component": "try.paragraph", "field": "Text"},
			{"component": "try.footer", "field": "footer_link", "subfields": [
				{"component": "try.link", "field": "display_text"}
			]}
		]}
	}`)

	cfg, err := ParseCollectionConfig(data)
	require.NoError(t, err)
	require.Len(t, cfg, 1)

	sections := cfg[0].Config
	assert.True(t, sections.HasSubfields)
	require.Len(t, sections.Subfields, 2)
	assert.Equal(t, "try.paragraph", sections.Subfields[0].Component)
	assert.Equal(t, "Text", sections.Subfields[0].Field)
	assert.False(t, sections.Subfields[0].HasSubfields)

	footer := sections.Subfields[1]
	assert.True(t, footer.HasSubfields)
	require.Len(t, footer.Subfields, 1)
	assert.Equal(t, "display_text", footer.Subfields[0].Field)
}

func TestParseCollectionConfig_UnwrapsSerialisedSubfields(t *testing.T) {
	data := []byte(`{
		"seo": {"index": true, "subfields": "{\"subfields\": [{\"component\": \"try.seo\", \"field\": \"meta_description\"}]}"}
	}`)

	cfg, err := ParseCollectionConfig(data)
	require.NoError(t, err)

	seo, ok := cfg.Get("seo")
	require.True(t, ok)
	assert.True(t, seo.HasSubfields)
	require.Len(t, seo.Subfields, 1)
	assert.Equal(t, "try.seo", seo.Subfields[0].Component)
	assert.Equal(t, "meta_description", seo.Subfields[0].Field)
}

func TestParseCollectionConfig_SerialisedEdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		subfields string
		wantLen   int
	}{
		{"empty string", `""`, 0},
		{"invalid json string", `"not json"`, 0},
		{"serialised bare array", `"[{\"field\": \"Text\"}]"`, 1},
		{"wrapper without subfields", `"{\"other\": 1}"`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte(`{"body": {"index": true, "subfields": ` + tt.subfields + `}}`)

			cfg, err := ParseCollectionConfig(data)
			require.NoError(t, err)

			body, ok := cfg.Get("body")
			require.True(t, ok)
			assert.True(t, body.HasSubfields)
			assert.Len(t, body.Subfields, tt.wantLen)
		})
	}
}

func TestParseCollectionConfig_Invalid(t *testing.T) {
	_, err := ParseCollectionConfig([]byte(`[1, 2]`))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseCollectionConfig([]byte(`{"body": {"index": true, "subfields": 5}}`))
	assert.Error(t, err)

	cfg, err := ParseCollectionConfig([]byte(`null`))
	require.NoError(t, err)
	assert.True(t, cfg.IsEmpty())
}

func TestCollectionConfig_MarshalJSON_Canonical(t *testing.T) {
	data := []byte(`{"seo":{"index":true,"subfields":"{\"subfields\":[{\"field\":\"meta\"}]}"},"title":{"index":true}}`)
	cfg, err := ParseCollectionConfig(data)
	require.NoError(t, err)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)

	assert.JSONEq(t, `{"seo":{"index":true,"subfields":[{"field":"meta"}]},"title":{"index":true}}`, string(out))
	assert.Less(t, indexOf(string(out), `"seo"`), indexOf(string(out), `"title"`))
}

func TestFieldIndexConfig_MarshalEmptySubfields(t *testing.T) {
	cfg := FieldIndexConfig{Indexed: true, HasSubfields: true}

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":true,"subfields":[]}`, string(out))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
