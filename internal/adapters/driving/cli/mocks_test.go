package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driving"
)

// execute runs the root command with args and returns its combined output.
// Flags are reset to their defaults afterwards.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// withServices installs s for the duration of a test.
func withServices(t *testing.T, s Services) {
	t.Helper()
	SetServices(s)
	t.Cleanup(func() { SetServices(Services{}) })
}

// mockRebuilder implements driving.RebuildOrchestrator.
type mockRebuilder struct {
	results  map[string]*domain.RebuildResult
	err      error
	rebuilt  []string
	indexed  []string
	indexErr error
}

var _ driving.RebuildOrchestrator = (*mockRebuilder)(nil)

func (m *mockRebuilder) RebuildCollection(_ context.Context, collection string) (*domain.RebuildResult, error) {
	m.rebuilt = append(m.rebuilt, collection)
	if m.err != nil {
		return nil, m.err
	}
	if r, ok := m.results[collection]; ok {
		return r, nil
	}
	return &domain.RebuildResult{Success: true, CollectionName: collection, NewIndexName: collection + "_002"}, nil
}

func (m *mockRebuilder) RebuildAll(ctx context.Context) (*domain.FullRebuildResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	full := &domain.FullRebuildResult{Success: true}
	for name := range m.results {
		r, _ := m.RebuildCollection(ctx, name)
		full.Results = append(full.Results, *r)
		full.Success = full.Success && r.Success
	}
	return full, nil
}

func (m *mockRebuilder) IndexCollection(_ context.Context, collection, _ string) (int, error) {
	m.indexed = append(m.indexed, collection)
	return 0, m.indexErr
}

// mockValidator implements driving.RebuildValidator.
type mockValidator struct {
	result *domain.ValidationResult
	err    error
}

func (m *mockValidator) ValidateRebuild(_ context.Context, _, _ string) (*domain.ValidationResult, error) {
	return m.result, m.err
}

// mockQueue implements driving.QueueService.
type mockQueue struct {
	drain   *domain.DrainResult
	err     error
	pending []domain.PendingIndexingTask
	added   []domain.PendingIndexingTask
}

func (m *mockQueue) DrainPending(_ context.Context) (*domain.DrainResult, error) {
	return m.drain, m.err
}

func (m *mockQueue) Enqueue(_ context.Context, task *domain.PendingIndexingTask) error {
	if m.err != nil {
		return m.err
	}
	task.ID = "task-1"
	m.added = append(m.added, *task)
	return nil
}

func (m *mockQueue) ListPending(_ context.Context) ([]domain.PendingIndexingTask, error) {
	return m.pending, m.err
}

// mockCollections implements driving.CollectionService.
type mockCollections struct {
	list    []driving.CollectionStatus
	configs map[string]domain.CollectionConfig
	err     error
}

func (m *mockCollections) List(_ context.Context) ([]driving.CollectionStatus, error) {
	return m.list, m.err
}

func (m *mockCollections) GetConfig(_ context.Context, collection string) (domain.CollectionConfig, error) {
	return m.configs[collection], m.err
}

func (m *mockCollections) SetConfig(_ context.Context, collection string, cfg domain.CollectionConfig) error {
	if m.err != nil {
		return m.err
	}
	if m.configs == nil {
		m.configs = make(map[string]domain.CollectionConfig)
	}
	m.configs[collection] = cfg
	return nil
}

// mockSearch implements driving.SearchService.
type mockSearch struct {
	hits     []domain.SearchHit
	err      error
	lastOpts domain.SearchOptions
	lastQ    string
}

func (m *mockSearch) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error) {
	m.lastQ = query
	m.lastOpts = opts
	return m.hits, m.err
}

// mockStatus implements driving.StatusService.
type mockStatus struct {
	info      *domain.Info
	logs      []domain.LogEntry
	err       error
	lastLimit int
}

func (m *mockStatus) Info(_ context.Context) (*domain.Info, error) {
	return m.info, m.err
}

func (m *mockStatus) RecentLogs(_ context.Context, limit int) ([]domain.LogEntry, error) {
	m.lastLimit = limit
	return m.logs, nil
}

// mockSettings implements driving.SettingsService.
type mockSettings struct {
	settings    domain.Settings
	saved       *domain.Settings
	validateErr error
}

func newMockSettings() *mockSettings {
	return &mockSettings{settings: domain.DefaultSettings()}
}

func (m *mockSettings) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettings) Save(settings *domain.Settings) error {
	s := *settings
	if s.Connection.Password == "" {
		s.Connection.Password = m.settings.Connection.Password
	}
	if s.Content.Token == "" {
		s.Content.Token = m.settings.Content.Token
	}
	m.settings = s
	m.saved = &s
	return nil
}

func (m *mockSettings) SetConnection(conn domain.ConnectionSettings) error {
	if conn.Host == "" {
		return domain.ErrEngineNotConfigured
	}
	s := m.settings
	s.Connection = conn
	return m.Save(&s)
}

func (m *mockSettings) Validate() error {
	return m.validateErr
}

// mockScheduler implements driving.Scheduler. It runs until stopped.
type mockScheduler struct {
	mu      sync.Mutex
	started int
	stopped int
	stopCh  chan struct{}
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.mu.Lock()
	m.started++
	m.stopCh = make(chan struct{})
	stopCh := m.stopCh
	m.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-stopCh:
		return nil
	}
}

func (m *mockScheduler) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped++
	if m.stopCh != nil {
		close(m.stopCh)
		m.stopCh = nil
	}
	return nil
}

func (m *mockScheduler) counts() (started, stopped int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started, m.stopped
}

// mockWatcher fires onChange once per value sent on changes.
type mockWatcher struct {
	changes chan struct{}
}

func (m *mockWatcher) Watch(ctx context.Context, onChange func()) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.changes:
			onChange()
		}
	}
}
