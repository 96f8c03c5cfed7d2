package services

import (
	"context"
	"fmt"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
	"github.com/emonupg/essync/internal/core/ports/driving"
	"github.com/emonupg/essync/internal/logger"
)

// Ensure StatusService implements the interface.
var _ driving.StatusService = (*StatusService)(nil)

// StatusService reports configuration, connectivity and index state.
type StatusService struct {
	settings driving.SettingsService
	engine   driven.SearchEngine
	registry driven.IndexRegistry
	logs     driven.LogSink
}

// NewStatusService creates a new status service.
// The engine may be nil when no host is configured.
func NewStatusService(
	settings driving.SettingsService,
	engine driven.SearchEngine,
	registry driven.IndexRegistry,
	logs driven.LogSink,
) *StatusService {
	return &StatusService{
		settings: settings,
		engine:   engine,
		registry: registry,
		logs:     logs,
	}
}

// Info summarises configuration, connectivity and the index registry.
func (s *StatusService) Info(ctx context.Context) (*domain.Info, error) {
	settings, err := s.settings.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	info := &domain.Info{
		CronSchedule: domain.OrNotConfigured(settings.Indexing.CronSchedule),
		Host:         domain.OrNotConfigured(settings.Connection.Host),
		Username:     domain.OrNotConfigured(settings.Connection.Username),
		Certificate:  domain.OrNotConfigured(settings.Connection.Certificate),
		IndexAlias:   domain.OrNotConfigured(settings.IndexAlias),
		GlobalAlias:  domain.OrNotConfigured(settings.GlobalAlias),
		Initialized:  s.engine != nil && settings.Connection.IsConfigured(),
	}

	if info.Initialized {
		if err := s.engine.Ping(ctx); err != nil {
			logger.Warn("Search engine unreachable: %v", err)
		} else {
			info.Connected = true
		}
	}

	records, err := s.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list index registry: %w", err)
	}
	info.Collections = records

	return info, nil
}

// RecentLogs returns the newest run log entries first.
func (s *StatusService) RecentLogs(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	entries, err := s.logs.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("read run log: %w", err)
	}
	return entries, nil
}
