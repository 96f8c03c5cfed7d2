// Package fixtures serves content collections from YAML files.
//
// Every *.yaml or *.yml file in the fixtures directory describes one
// collection:
//
//	collection: api::article.article
//	draftAndPublish: true
//	attributes:
//	  title: {type: string}
//	  seo: {type: component, component: shared.seo}
//	components:
//	  shared.seo:
//	    metaTitle: {type: string}
//	records:
//	  - documentId: a1
//	    title: Hello
//	    publishedAt: 2024-01-01T00:00:00Z
//
// Records are returned fully nested, so population specs are ignored.
// A record is published when its publishedAt value is set.
package fixtures

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
	"github.com/emonupg/essync/internal/logger"
)

// Ensure Repository implements the interface.
var _ driven.ContentRepository = (*Repository)(nil)

// PublishedAtKey marks a record as published.
const PublishedAtKey = "publishedAt"

type attributeFile struct {
	Type       string   `yaml:"type"`
	Component  string   `yaml:"component"`
	Components []string `yaml:"components"`
}

type collectionFile struct {
	Collection      string                              `yaml:"collection"`
	DraftAndPublish bool                                `yaml:"draftAndPublish"`
	Attributes      map[string]attributeFile            `yaml:"attributes"`
	Components      map[string]map[string]attributeFile `yaml:"components"`
	Records         []map[string]any                    `yaml:"records"`
}

type collection struct {
	schema  *domain.CollectionSchema
	records []domain.ContentRecord
}

// Repository is a read-only content repository loaded from disk.
type Repository struct {
	dir string

	mu          sync.RWMutex
	collections map[string]*collection
}

// New loads every fixture file in dir.
func New(dir string) (*Repository, error) {
	r := &Repository{dir: dir}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the fixtures directory.
func (r *Repository) Reload() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("read fixtures dir: %w", err)
	}

	loaded := make(map[string]*collection)
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(r.dir, entry.Name())
		c, err := loadFile(path)
		if err != nil {
			return err
		}
		if _, dup := loaded[c.schema.Name]; dup {
			return fmt.Errorf("%s: duplicate collection %s: %w", path, c.schema.Name, domain.ErrInvalidInput)
		}
		loaded[c.schema.Name] = c
		logger.Debug("fixtures: loaded %s (%d records)", c.schema.Name, len(c.records))
	}

	r.mu.Lock()
	r.collections = loaded
	r.mu.Unlock()
	return nil
}

func loadFile(path string) (*collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}

	var file collectionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if file.Collection == "" {
		return nil, fmt.Errorf("%s: collection is required: %w", path, domain.ErrInvalidInput)
	}

	schema := &domain.CollectionSchema{
		Name:         file.Collection,
		DraftPublish: file.DraftAndPublish,
		Attributes:   convertAttributes(file.Attributes),
		Components:   make(map[string]map[string]domain.AttributeSchema, len(file.Components)),
	}
	for uid, attrs := range file.Components {
		schema.Components[uid] = convertAttributes(attrs)
	}

	records := make([]domain.ContentRecord, 0, len(file.Records))
	for i, raw := range file.Records {
		record, _ := normalize(raw).(map[string]any)
		if domain.ContentRecord(record).DocumentID() == "" {
			return nil, fmt.Errorf("%s: record %d has no %s: %w", path, i, domain.DocumentIDKey, domain.ErrInvalidInput)
		}
		records = append(records, record)
	}

	return &collection{schema: schema, records: records}, nil
}

func convertAttributes(raw map[string]attributeFile) map[string]domain.AttributeSchema {
	attrs := make(map[string]domain.AttributeSchema, len(raw))
	for name, a := range raw {
		attr := domain.AttributeSchema{Type: domain.AttributeScalar}
		switch t := domain.AttributeType(a.Type); t {
		case domain.AttributeComponent, domain.AttributeDynamicZone, domain.AttributeMedia, domain.AttributeRelation:
			attr.Type = t
		}
		attr.Component = a.Component
		attr.Components = a.Components
		attrs[name] = attr
	}
	return attrs
}

// normalize converts YAML-decoded values into JSON-shaped values.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return v
	}
}

func (r *Repository) lookup(name string) (*collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrUnknownCollection)
	}
	return c, nil
}

// Schema describes a collection.
func (r *Repository) Schema(_ context.Context, name string) (*domain.CollectionSchema, error) {
	c, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return c.schema, nil
}

// FindMany returns matching records in the requested order.
func (r *Repository) FindMany(_ context.Context, name string, opts domain.FindOptions) ([]domain.ContentRecord, error) {
	c, err := r.lookup(name)
	if err != nil {
		return nil, err
	}

	records := filter(c.records, opts.Status)
	if opts.Sort != "" {
		sortRecords(records, opts.Sort)
	}
	return records, nil
}

// FindOne returns a record by document id.
func (r *Repository) FindOne(_ context.Context, name, documentID string, _ map[string]any) (domain.ContentRecord, error) {
	c, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	for _, record := range c.records {
		if record.DocumentID() == documentID {
			return record, nil
		}
	}
	return nil, fmt.Errorf("%s %s: %w", name, documentID, domain.ErrNotFound)
}

// Count returns the number of matching records.
func (r *Repository) Count(_ context.Context, name string, opts domain.FindOptions) (int, error) {
	c, err := r.lookup(name)
	if err != nil {
		return 0, err
	}
	return len(filter(c.records, opts.Status)), nil
}

// Collections returns every loaded collection, sorted.
func (r *Repository) Collections(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.collections))
	for name := range r.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func filter(records []domain.ContentRecord, status domain.PublicationStatus) []domain.ContentRecord {
	out := make([]domain.ContentRecord, 0, len(records))
	for _, record := range records {
		if status == domain.StatusPublished && domain.IsFalsy(record[PublishedAtKey]) {
			continue
		}
		out = append(out, record)
	}
	return out
}

// sortRecords orders records by a "field:direction" expression.
func sortRecords(records []domain.ContentRecord, expr string) {
	field, dir, _ := strings.Cut(expr, ":")
	desc := strings.EqualFold(dir, "desc")
	sort.SliceStable(records, func(i, j int) bool {
		a := domain.ValueString(records[i][field])
		b := domain.ValueString(records[j][field])
		if desc {
			return a > b
		}
		return a < b
	})
}
