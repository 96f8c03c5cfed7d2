package services

import (
	"fmt"
	"net/url"
	"time"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
	"github.com/emonupg/essync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyHost             = "elasticsearch.host"
	keyUsername         = "elasticsearch.username"
	keyPassword         = "elasticsearch.password"
	keyCertificate      = "elasticsearch.certificate"
	keyIndexAlias       = "elasticsearch.index_alias"
	keyGlobalAlias      = "elasticsearch.global_alias"
	keyCronSchedule     = "indexing.cron_schedule"
	keyIntervalMinutes  = "indexing.interval_minutes"
	keyRateLimit        = "indexing.rate_limit"
	keyFullRebuildHours = "indexing.full_rebuild_hours"
	keyContentDriver    = "content.driver"
	keyContentBaseURL   = "content.base_url"
	keyContentToken     = "content.token"
	keyFixturesDir      = "content.fixtures_dir"
	keySchedulerEnabled = "scheduler.enabled"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	settings := &domain.Settings{
		Connection: domain.ConnectionSettings{
			Host:        s.configStore.GetString(keyHost),
			Username:    s.configStore.GetString(keyUsername),
			Password:    s.configStore.GetString(keyPassword),
			Certificate: s.configStore.GetString(keyCertificate),
		},
		Content: domain.ContentSettings{
			Driver:      s.getDriver(defaults.Content.Driver),
			BaseURL:     s.configStore.GetString(keyContentBaseURL),
			Token:       s.configStore.GetString(keyContentToken),
			FixturesDir: s.configStore.GetString(keyFixturesDir),
		},
		Indexing: domain.IndexingSettings{
			CronSchedule:        s.configStore.GetString(keyCronSchedule),
			Interval:            s.getMinutes(keyIntervalMinutes, defaults.Indexing.Interval),
			RateLimit:           s.configStore.GetFloat(keyRateLimit),
			FullRebuildInterval: time.Duration(s.configStore.GetInt(keyFullRebuildHours)) * time.Hour,
		},
		IndexAlias:  s.getString(keyIndexAlias, defaults.IndexAlias),
		GlobalAlias: s.getString(keyGlobalAlias, defaults.GlobalAlias),
	}
	if settings.Indexing.RateLimit < 0 {
		settings.Indexing.RateLimit = 0
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.Settings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyHost, settings.Connection.Host},
		{keyUsername, settings.Connection.Username},
		{keyCertificate, settings.Connection.Certificate},
		{keyIndexAlias, settings.IndexAlias},
		{keyGlobalAlias, settings.GlobalAlias},
		{keyCronSchedule, settings.Indexing.CronSchedule},
		{keyIntervalMinutes, int(settings.Indexing.Interval / time.Minute)},
		{keyRateLimit, settings.Indexing.RateLimit},
		{keyFullRebuildHours, int(settings.Indexing.FullRebuildInterval / time.Hour)},
		{keyContentDriver, string(settings.Content.Driver)},
		{keyContentBaseURL, settings.Content.BaseURL},
		{keyFixturesDir, settings.Content.FixturesDir},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only overwritten when provided.
	if settings.Connection.Password != "" {
		if err := s.configStore.Set(keyPassword, settings.Connection.Password); err != nil {
			return fmt.Errorf("save %s: %w", keyPassword, err)
		}
	}
	if settings.Content.Token != "" {
		if err := s.configStore.Set(keyContentToken, settings.Content.Token); err != nil {
			return fmt.Errorf("save %s: %w", keyContentToken, err)
		}
	}

	return s.configStore.Save()
}

// SetConnection updates the search engine connection.
func (s *SettingsService) SetConnection(conn domain.ConnectionSettings) error {
	if err := validateHost(conn.Host); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Connection = conn

	return s.Save(settings)
}

// Validate checks that the settings can drive indexing.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Connection.IsConfigured() {
		return domain.ErrEngineNotConfigured
	}
	if err := validateHost(settings.Connection.Host); err != nil {
		return err
	}
	if settings.Connection.Username != "" && settings.Connection.Password == "" {
		return fmt.Errorf("elasticsearch password required for user %s: %w",
			settings.Connection.Username, domain.ErrInvalidInput)
	}

	switch settings.Content.Driver {
	case domain.ContentDriverStrapi:
		if settings.Content.BaseURL == "" {
			return fmt.Errorf("content.base_url required for %s driver: %w",
				settings.Content.Driver, domain.ErrInvalidInput)
		}
	case domain.ContentDriverFixtures:
		if settings.Content.FixturesDir == "" {
			return fmt.Errorf("content.fixtures_dir required for %s driver: %w",
				settings.Content.Driver, domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("invalid content driver %q: %w", settings.Content.Driver, domain.ErrInvalidInput)
	}

	if settings.IndexAlias == "" {
		return fmt.Errorf("elasticsearch.index_alias must not be empty: %w", domain.ErrInvalidInput)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// GetSchedulerConfig returns the scheduler configuration.
// The drain interval follows indexing.interval_minutes; a full rebuild task
// is enabled when indexing.full_rebuild_hours is set.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig()

	if _, exists := s.configStore.Get(keySchedulerEnabled); exists {
		cfg.Enabled = s.configStore.GetBool(keySchedulerEnabled)
	}

	settings, err := s.Get()
	if err != nil {
		return cfg
	}

	drain := cfg.TaskConfigs[domain.TaskIDPendingIndexing]
	drain.Interval = settings.Indexing.Interval
	cfg.TaskConfigs[domain.TaskIDPendingIndexing] = drain

	if settings.Indexing.FullRebuildInterval > 0 {
		cfg.TaskConfigs[domain.TaskIDFullRebuild] = domain.TaskConfig{
			Enabled:  true,
			Interval: settings.Indexing.FullRebuildInterval,
		}
	}

	return cfg
}

func validateHost(host string) error {
	if host == "" {
		return domain.ErrEngineNotConfigured
	}
	u, err := url.Parse(host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid elasticsearch host %q: %w", host, domain.ErrInvalidInput)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q: %w", u.Scheme, domain.ErrInvalidInput)
	}
	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getMinutes(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Minute
}

func (s *SettingsService) getDriver(defaultVal domain.ContentDriver) domain.ContentDriver {
	val := s.configStore.GetString(keyContentDriver)
	if val == "" {
		return defaultVal
	}
	driver := domain.ContentDriver(val)
	if !driver.IsValid() {
		return defaultVal
	}
	return driver
}
