package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
)

// --- Shared hand-written mocks for service tests ---

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// mockEngine implements driven.SearchEngine in memory and records every mutating call.
type mockEngine struct {
	mu      sync.Mutex
	indices map[string]map[string]domain.Document
	aliases map[string]map[string]bool
	calls   []string
	errs    map[string]error
	pingErr error

	// nearRealTime hides writes from Count until the index is refreshed.
	nearRealTime bool
	visible      map[string]int
}

var _ driven.SearchEngine = (*mockEngine)(nil)

func newMockEngine() *mockEngine {
	return &mockEngine{
		indices: make(map[string]map[string]domain.Document),
		aliases: make(map[string]map[string]bool),
		errs:    make(map[string]error),
		visible: make(map[string]int),
	}
}

func (m *mockEngine) record(format string, args ...any) {
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

func (m *mockEngine) resolve(name string) []string {
	if _, ok := m.indices[name]; ok {
		return []string{name}
	}
	var out []string
	for idx := range m.aliases[name] {
		out = append(out, idx)
	}
	sort.Strings(out)
	return out
}

func (m *mockEngine) Ping(_ context.Context) error { return m.pingErr }

func (m *mockEngine) IndexExists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["IndexExists"]; err != nil {
		return false, err
	}
	_, ok := m.indices[name]
	return ok, nil
}

func (m *mockEngine) CreateIndex(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("create %s", name)
	if err := m.errs["CreateIndex"]; err != nil {
		return err
	}
	if _, ok := m.indices[name]; !ok {
		m.indices[name] = make(map[string]domain.Document)
	}
	return nil
}

func (m *mockEngine) DeleteIndex(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("delete-index %s", name)
	if err := m.errs["DeleteIndex"]; err != nil {
		return err
	}
	delete(m.indices, name)
	for _, set := range m.aliases {
		delete(set, name)
	}
	return nil
}

func (m *mockEngine) AliasExists(_ context.Context, alias string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["AliasExists"]; err != nil {
		return false, err
	}
	return len(m.aliases[alias]) > 0, nil
}

func (m *mockEngine) UpdateAliases(_ context.Context, actions []driven.AliasAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		parts = append(parts, fmt.Sprintf("%s(%s,%s)", a.Op, a.Index, a.Alias))
	}
	m.record("aliases %s", strings.Join(parts, " "))
	if err := m.errs["UpdateAliases"]; err != nil {
		return err
	}
	for _, a := range actions {
		set := m.aliases[a.Alias]
		if set == nil {
			set = make(map[string]bool)
			m.aliases[a.Alias] = set
		}
		switch a.Op {
		case driven.AliasAdd:
			set[a.Index] = true
		case driven.AliasRemove:
			if a.Index == "*" {
				m.aliases[a.Alias] = make(map[string]bool)
			} else {
				delete(set, a.Index)
			}
		}
	}
	return nil
}

func (m *mockEngine) IndexDocument(_ context.Context, index, id string, body domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("index %s/%s", index, id)
	if err := m.errs["IndexDocument"]; err != nil {
		return err
	}
	targets := m.resolve(index)
	if len(targets) == 0 {
		m.indices[index] = make(map[string]domain.Document)
		targets = []string{index}
	}
	for _, t := range targets {
		m.indices[t][id] = body
	}
	return nil
}

func (m *mockEngine) DeleteDocument(_ context.Context, index, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("delete %s/%s", index, id)
	if err := m.errs["DeleteDocument"]; err != nil {
		return err
	}
	for _, t := range m.resolve(index) {
		delete(m.indices[t], id)
	}
	return nil
}

func (m *mockEngine) Count(_ context.Context, index string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["Count"]; err != nil {
		return 0, err
	}
	n := 0
	for _, t := range m.resolve(index) {
		if m.nearRealTime {
			n += m.visible[t]
		} else {
			n += len(m.indices[t])
		}
	}
	return n, nil
}

func (m *mockEngine) Refresh(_ context.Context, index string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("refresh %s", index)
	if err := m.errs["Refresh"]; err != nil {
		return err
	}
	for _, t := range m.resolve(index) {
		m.visible[t] = len(m.indices[t])
	}
	return nil
}

func (m *mockEngine) GetDocument(_ context.Context, index, id string) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["GetDocument"]; err != nil {
		return nil, err
	}
	for _, t := range m.resolve(index) {
		if doc, ok := m.indices[t][id]; ok {
			return doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockEngine) Search(_ context.Context, index, query string, limit int) ([]domain.SearchHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("search %s %s", index, query)
	if err := m.errs["Search"]; err != nil {
		return nil, err
	}
	var hits []domain.SearchHit
	for _, t := range m.resolve(index) {
		for id, doc := range m.indices[t] {
			hits = append(hits, domain.SearchHit{Index: t, ID: id, Score: 1, Source: doc})
		}
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *mockEngine) docCount(index string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.indices[index])
}

func (m *mockEngine) aliasTargets(alias string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for idx := range m.aliases[alias] {
		out = append(out, idx)
	}
	sort.Strings(out)
	return out
}

func (m *mockEngine) callsWithPrefix(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// mockContent implements driven.ContentRepository.
type mockContent struct {
	schemas  map[string]*domain.CollectionSchema
	records  map[string][]domain.ContentRecord
	findErr  error
	countErr error
	lastOpts domain.FindOptions
}

var _ driven.ContentRepository = (*mockContent)(nil)

func newMockContent() *mockContent {
	return &mockContent{
		schemas: make(map[string]*domain.CollectionSchema),
		records: make(map[string][]domain.ContentRecord),
	}
}

func (m *mockContent) add(collection string, records ...domain.ContentRecord) {
	if _, ok := m.schemas[collection]; !ok {
		m.schemas[collection] = &domain.CollectionSchema{Name: collection}
	}
	m.records[collection] = append(m.records[collection], records...)
}

func (m *mockContent) Schema(_ context.Context, collection string) (*domain.CollectionSchema, error) {
	s, ok := m.schemas[collection]
	if !ok {
		return nil, domain.ErrUnknownCollection
	}
	return s, nil
}

func (m *mockContent) live(collection string, opts domain.FindOptions) []domain.ContentRecord {
	var out []domain.ContentRecord
	for _, r := range m.records[collection] {
		if opts.Status == domain.StatusPublished && domain.IsFalsy(r["publishedAt"]) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (m *mockContent) FindMany(_ context.Context, collection string, opts domain.FindOptions) ([]domain.ContentRecord, error) {
	m.lastOpts = opts
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.live(collection, opts), nil
}

func (m *mockContent) FindOne(_ context.Context, collection, documentID string, _ map[string]any) (domain.ContentRecord, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, r := range m.records[collection] {
		if r.DocumentID() == documentID {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockContent) Count(_ context.Context, collection string, opts domain.FindOptions) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.live(collection, opts)), nil
}

func (m *mockContent) Collections(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(m.schemas))
	for name := range m.schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// mockFieldConfigs implements driven.FieldConfigStore.
type mockFieldConfigs struct {
	configs map[string]domain.CollectionConfig
	getErr  error
}

var _ driven.FieldConfigStore = (*mockFieldConfigs)(nil)

func newMockFieldConfigs() *mockFieldConfigs {
	return &mockFieldConfigs{configs: make(map[string]domain.CollectionConfig)}
}

func (m *mockFieldConfigs) GetCollectionConfig(_ context.Context, collection string) (domain.CollectionConfig, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.configs[collection], nil
}

func (m *mockFieldConfigs) SaveCollectionConfig(_ context.Context, collection string, cfg domain.CollectionConfig) error {
	m.configs[collection] = cfg
	return nil
}

func (m *mockFieldConfigs) DeleteCollectionConfig(_ context.Context, collection string) error {
	delete(m.configs, collection)
	return nil
}

func (m *mockFieldConfigs) ListConfiguredCollections(_ context.Context) ([]string, error) {
	var out []string
	for name, cfg := range m.configs {
		if !cfg.IsEmpty() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockFieldConfigs) IsConfigured(_ context.Context, collection string) (bool, error) {
	return !m.configs[collection].IsEmpty(), nil
}

// mockRegistry implements driven.IndexRegistry.
type mockRegistry struct {
	mu      sync.Mutex
	records map[string]domain.CollectionIndexRecord
	saves   int
	getErr  error
}

var _ driven.IndexRegistry = (*mockRegistry)(nil)

func newMockRegistry() *mockRegistry {
	return &mockRegistry{records: make(map[string]domain.CollectionIndexRecord)}
}

func (m *mockRegistry) Get(_ context.Context, collection string) (*domain.CollectionIndexRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.records[collection]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (m *mockRegistry) Save(_ context.Context, record domain.CollectionIndexRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.records[record.CollectionName] = record
	return nil
}

func (m *mockRegistry) List(_ context.Context) ([]domain.CollectionIndexRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CollectionIndexRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CollectionName < out[j].CollectionName })
	return out, nil
}

// mockQueue implements driven.PendingQueue.
type mockQueue struct {
	tasks     []domain.PendingIndexingTask
	completed []string
	listErr   error
}

var _ driven.PendingQueue = (*mockQueue)(nil)

func (m *mockQueue) ListPending(_ context.Context) ([]domain.PendingIndexingTask, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.PendingIndexingTask
	for _, t := range m.tasks {
		if t.IsPending() {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockQueue) MarkComplete(_ context.Context, taskID string) error {
	m.completed = append(m.completed, "task:"+taskID)
	for i := range m.tasks {
		if m.tasks[i].ID == taskID {
			m.tasks[i].CompletedAt = fixedNow
		}
	}
	return nil
}

func (m *mockQueue) MarkCompleteByItemDocumentID(_ context.Context, itemDocumentID string) error {
	m.completed = append(m.completed, "item:"+itemDocumentID)
	for i := range m.tasks {
		if m.tasks[i].ItemDocumentID == itemDocumentID {
			m.tasks[i].CompletedAt = fixedNow
		}
	}
	return nil
}

func (m *mockQueue) Enqueue(_ context.Context, task *domain.PendingIndexingTask) error {
	if task.ID == "" {
		task.ID = fmt.Sprintf("t%d", len(m.tasks)+1)
	}
	m.tasks = append(m.tasks, *task)
	return nil
}

// mockLogSink implements driven.LogSink.
type mockLogSink struct {
	mu     sync.Mutex
	passes []string
	fails  []string
}

var _ driven.LogSink = (*mockLogSink)(nil)

func (m *mockLogSink) RecordPass(_ context.Context, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passes = append(m.passes, message)
}

func (m *mockLogSink) RecordFail(_ context.Context, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fails = append(m.fails, message)
}

func (m *mockLogSink) Recent(_ context.Context, limit int) ([]domain.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.LogEntry
	for _, msg := range m.fails {
		out = append(out, domain.LogEntry{Status: domain.LogFail, Message: msg})
	}
	for _, msg := range m.passes {
		out = append(out, domain.LogEntry{Status: domain.LogPass, Message: msg})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// mockTransformers implements driven.Transformers from plain functions.
type mockTransformers map[string]func(any) any

var _ driven.Transformers = mockTransformers(nil)

func (m mockTransformers) Apply(name string, value any) (any, bool) {
	fn, ok := m[name]
	if !ok {
		return value, false
	}
	return fn(value), true
}
