package strapi

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/emonupg/essync/internal/core/domain"
)

// encodeNested writes v into values using bracketed keys under prefix.
// Maps and slices recurse; scalars are formatted as strings.
func encodeNested(values url.Values, prefix string, v any) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			encodeNested(values, prefix+"["+k+"]", val[k])
		}
	case []any:
		for i, item := range val {
			encodeNested(values, prefix+"["+strconv.Itoa(i)+"]", item)
		}
	case []string:
		for i, item := range val {
			values.Add(prefix+"["+strconv.Itoa(i)+"]", item)
		}
	case nil:
	default:
		values.Add(prefix, fmt.Sprint(val))
	}
}

// findQuery builds the query string of a collection listing.
func findQuery(opts domain.FindOptions, page, pageSize int) url.Values {
	values := url.Values{}
	if opts.Sort != "" {
		values.Set("sort", opts.Sort)
	}
	if opts.Status != domain.StatusAny {
		values.Set("status", string(opts.Status))
	}
	for field, spec := range opts.Populate {
		encodeNested(values, "populate["+field+"]", spec)
	}
	values.Set("pagination[page]", strconv.Itoa(page))
	values.Set("pagination[pageSize]", strconv.Itoa(pageSize))
	return values
}

// populateQuery builds the query string of a single record lookup.
func populateQuery(populate map[string]any) url.Values {
	values := url.Values{}
	for field, spec := range populate {
		encodeNested(values, "populate["+field+"]", spec)
	}
	return values
}
