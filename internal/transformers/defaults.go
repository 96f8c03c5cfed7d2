package transformers

import (
	"strings"

	"github.com/emonupg/essync/internal/core/domain"
)

// Built-in transform names.
const (
	Markdown  = "markdown"
	HTML      = "html"
	Lowercase = "lowercase"
	Uppercase = "uppercase"
	Trim      = "trim"
	Text      = "text"
)

// ContentTransforms returns the registry used for field "transform" keys.
func ContentTransforms() *Registry {
	r := NewRegistry()
	r.Register(Markdown, onStrings(StripMarkdown))
	r.Register(HTML, onStrings(StripHTML))
	return r
}

// Functions returns the registry used for "transformerFunction" keys.
func Functions() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// RegisterDefaults registers all built-in transformer functions.
func RegisterDefaults(r *Registry) {
	r.Register(Markdown, onStrings(StripMarkdown))
	r.Register(HTML, onStrings(StripHTML))
	r.Register(Lowercase, onStrings(strings.ToLower))
	r.Register(Uppercase, onStrings(strings.ToUpper))
	r.Register(Trim, onStrings(strings.TrimSpace))
	r.Register(Text, toText)
}

// onStrings lifts a string function; other values pass through unchanged.
func onStrings(fn func(string) string) Func {
	return func(value any) any {
		s, ok := value.(string)
		if !ok {
			return value
		}
		return fn(s)
	}
}

// toText renders any value as text. Lists join with newlines.
func toText(value any) any {
	if list, ok := value.([]any); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if s := domain.ValueString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	}
	return domain.ValueString(value)
}
