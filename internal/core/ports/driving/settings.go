package driving

import "github.com/emonupg/essync/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.Settings, error)

	// Save persists application settings.
	Save(settings *domain.Settings) error

	// SetConnection updates the search engine connection.
	SetConnection(conn domain.ConnectionSettings) error

	// Validate checks that the settings can drive indexing.
	Validate() error
}
