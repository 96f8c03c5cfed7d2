package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Naming defaults.
const (
	// CollectionNamespacePrefix is stripped from collection names before deriving index names.
	CollectionNamespacePrefix = "api::"

	// IndexNamePrefix starts every synthesised physical index name.
	IndexNamePrefix = "search-plugin-"

	// AliasNamePrefix starts every per-collection alias.
	AliasNamePrefix = "search-alias-"

	// DefaultGlobalAlias spans all collections' current indices.
	DefaultGlobalAlias = "search-all"

	// FirstIndexVersion is the version of a synthesised index name.
	FirstIndexVersion = 1
)

var indexVersionSuffix = regexp.MustCompile(`_(\d+)$`)

// SanitizeCollectionName strips the namespace prefix and replaces separators with hyphens.
// E.g. "api::blog.post" becomes "blog-post".
func SanitizeCollectionName(collection string) string {
	short := strings.TrimPrefix(collection, CollectionNamespacePrefix)
	return strings.ReplaceAll(short, ".", "-")
}

// DefaultIndexName is the first physical index name for a collection
// that has never been rebuilt.
func DefaultIndexName(collection string) string {
	return fmt.Sprintf("%s%s-index_%03d", IndexNamePrefix, SanitizeCollectionName(collection), FirstIndexVersion)
}

// CollectionAlias returns the stable alias for a collection.
func CollectionAlias(collection string) string {
	return AliasNamePrefix + SanitizeCollectionName(collection)
}

// NextIndexName increments the trailing version of an index name.
// "x_001" becomes "x_002"; a name without a version suffix gets "_002" appended.
// A version too large to increment is ErrInvalidInput.
func NextIndexName(current string) (string, error) {
	m := indexVersionSuffix.FindStringSubmatch(current)
	if m == nil {
		return current + "_002", nil
	}
	version, err := parseVersion(m[1])
	if err != nil {
		return "", fmt.Errorf("index %q: %w", current, err)
	}
	base := current[:strings.LastIndex(current, "_")]
	return fmt.Sprintf("%s_%03d", base, version+1), nil
}

// parseVersion bounds versions to 31 bits so version+1 never overflows.
func parseVersion(digits string) (int, error) {
	v, err := strconv.ParseUint(digits, 10, 31)
	if err != nil || v == math.MaxInt32 {
		return 0, fmt.Errorf("version %s out of range: %w", digits, ErrInvalidInput)
	}
	return int(v), nil
}

// ParseIndexVersion returns the trailing version of an index name,
// or FirstIndexVersion when there is none.
func ParseIndexVersion(name string) int {
	m := indexVersionSuffix.FindStringSubmatch(name)
	if m == nil {
		return FirstIndexVersion
	}
	version, err := parseVersion(m[1])
	if err != nil {
		return FirstIndexVersion
	}
	return version
}
