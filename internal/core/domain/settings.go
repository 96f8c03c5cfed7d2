package domain

import "time"

const notConfigured = "Not configured"

// ConnectionSettings locate and authenticate against the search engine.
type ConnectionSettings struct {
	Host        string
	Username    string
	Password    string
	Certificate string
}

// IsConfigured returns true when a host is set.
func (c ConnectionSettings) IsConfigured() bool {
	return c.Host != ""
}

// ContentDriver selects the content repository adapter.
type ContentDriver string

// Content drivers.
const (
	ContentDriverStrapi   ContentDriver = "strapi"
	ContentDriverFixtures ContentDriver = "fixtures"
)

// IsValid returns true if the driver is recognised.
func (d ContentDriver) IsValid() bool {
	return d == ContentDriverStrapi || d == ContentDriverFixtures
}

// ContentSettings configure the content repository adapter.
type ContentSettings struct {
	Driver      ContentDriver
	BaseURL     string
	Token       string
	FixturesDir string
}

// IndexingSettings tune the indexing workers.
type IndexingSettings struct {
	// CronSchedule is informational; it is shown in status output only.
	CronSchedule string

	// Interval is how often the pending queue is drained by the scheduler.
	Interval time.Duration

	// RateLimit caps document writes per second during bulk indexing. Zero is unlimited.
	RateLimit float64

	// FullRebuildInterval enables a periodic full rebuild when non-zero.
	FullRebuildInterval time.Duration
}

// Settings is the full runtime configuration.
type Settings struct {
	Connection ConnectionSettings
	Content    ContentSettings
	Indexing   IndexingSettings

	// IndexAlias is the fallback alias used when no per-collection or global alias applies.
	IndexAlias string

	// GlobalAlias spans every collection's current index.
	GlobalAlias string
}

// DefaultSettings returns sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		Content: ContentSettings{
			Driver: ContentDriverStrapi,
		},
		Indexing: IndexingSettings{
			Interval: time.Minute,
		},
		IndexAlias:  "search-default",
		GlobalAlias: DefaultGlobalAlias,
	}
}

// OrNotConfigured returns s, or a placeholder when s is empty.
func OrNotConfigured(s string) string {
	if s == "" {
		return notConfigured
	}
	return s
}

// Info summarises the deployment for status output.
type Info struct {
	CronSchedule string
	Host         string
	Username     string
	Certificate  string
	IndexAlias   string
	GlobalAlias  string
	Connected    bool
	Initialized  bool
	Collections  []CollectionIndexRecord
}
