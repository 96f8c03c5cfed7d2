package strapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
	"github.com/emonupg/essync/internal/logger"
)

// Ensure Repository implements the interface.
var _ driven.ContentRepository = (*Repository)(nil)

// apiNamespace prefixes user-defined content types.
const apiNamespace = "api::"

// Repository reads content through the Strapi REST API.
type Repository struct {
	client   *http.Client
	baseURL  string
	token    string
	pageSize int

	mu    sync.Mutex
	types map[string]*contentType
}

// contentType is the content-type builder view of a collection.
type contentType struct {
	UID    string `json:"uid"`
	Schema struct {
		Kind            string                  `json:"kind"`
		PluralName      string                  `json:"pluralName"`
		DraftAndPublish bool                    `json:"draftAndPublish"`
		Attributes      map[string]rawAttribute `json:"attributes"`
	} `json:"schema"`
}

// component is the content-type builder view of a component.
type component struct {
	UID    string `json:"uid"`
	Schema struct {
		Attributes map[string]rawAttribute `json:"attributes"`
	} `json:"schema"`
}

type rawAttribute struct {
	Type       string   `json:"type"`
	Component  string   `json:"component"`
	Components []string `json:"components"`
}

type pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

type listResponse struct {
	Data []domain.ContentRecord `json:"data"`
	Meta struct {
		Pagination pagination `json:"pagination"`
	} `json:"meta"`
}

// New creates a Strapi repository.
func New(cfg Config) (*Repository, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid strapi base url %q: %w", cfg.BaseURL, domain.ErrInvalidInput)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Repository{
		client:   client,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		pageSize: cfg.PageSize,
		types:    make(map[string]*contentType),
	}, nil
}

// contentType returns the cached content type of a collection.
func (r *Repository) contentType(ctx context.Context, collection string) (*contentType, error) {
	r.mu.Lock()
	ct, ok := r.types[collection]
	r.mu.Unlock()
	if ok {
		return ct, nil
	}

	var resp struct {
		Data contentType `json:"data"`
	}
	err := r.get(ctx, "/api/content-type-builder/content-types/"+url.PathEscape(collection), nil, &resp)
	if errors.Is(err, errNotFound) {
		return nil, fmt.Errorf("%s: %w", collection, domain.ErrUnknownCollection)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch content type %s: %w", collection, err)
	}
	if resp.Data.Schema.Kind != "" && resp.Data.Schema.Kind != "collectionType" {
		return nil, fmt.Errorf("%s is a %s: %w", collection, resp.Data.Schema.Kind, domain.ErrUnknownCollection)
	}

	ct = &resp.Data
	r.mu.Lock()
	r.types[collection] = ct
	r.mu.Unlock()
	return ct, nil
}

// Schema describes a collection and every component it references.
func (r *Repository) Schema(ctx context.Context, collection string) (*domain.CollectionSchema, error) {
	ct, err := r.contentType(ctx, collection)
	if err != nil {
		return nil, err
	}

	schema := &domain.CollectionSchema{
		Name:         collection,
		DraftPublish: ct.Schema.DraftAndPublish,
		Attributes:   convertAttributes(ct.Schema.Attributes),
		Components:   map[string]map[string]domain.AttributeSchema{},
	}

	if !referencesComponents(schema.Attributes) {
		return schema, nil
	}

	var resp struct {
		Data []component `json:"data"`
	}
	if err := r.get(ctx, "/api/content-type-builder/components", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch components: %w", err)
	}
	all := make(map[string]map[string]domain.AttributeSchema, len(resp.Data))
	for _, c := range resp.Data {
		all[c.UID] = convertAttributes(c.Schema.Attributes)
	}
	collectComponents(schema.Attributes, all, schema.Components)

	return schema, nil
}

// FindMany pages through every matching record.
func (r *Repository) FindMany(ctx context.Context, collection string, opts domain.FindOptions) ([]domain.ContentRecord, error) {
	ct, err := r.contentType(ctx, collection)
	if err != nil {
		return nil, err
	}

	var records []domain.ContentRecord
	for page := 1; ; page++ {
		var resp listResponse
		if err := r.get(ctx, "/api/"+ct.Schema.PluralName, findQuery(opts, page, r.pageSize), &resp); err != nil {
			return nil, fmt.Errorf("find %s page %d: %w", collection, page, err)
		}
		records = append(records, resp.Data...)

		logger.Debug("strapi: %s page %d/%d (%d records)",
			collection, page, resp.Meta.Pagination.PageCount, len(resp.Data))
		if len(resp.Data) == 0 || page >= resp.Meta.Pagination.PageCount {
			break
		}
	}
	return records, nil
}

// FindOne fetches one record by document id.
func (r *Repository) FindOne(ctx context.Context, collection, documentID string, populate map[string]any) (domain.ContentRecord, error) {
	ct, err := r.contentType(ctx, collection)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data domain.ContentRecord `json:"data"`
	}
	path := "/api/" + ct.Schema.PluralName + "/" + url.PathEscape(documentID)
	err = r.get(ctx, path, populateQuery(populate), &resp)
	if errors.Is(err, errNotFound) {
		return nil, fmt.Errorf("%s %s: %w", collection, documentID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s %s: %w", collection, documentID, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%s %s: %w", collection, documentID, domain.ErrNotFound)
	}
	return resp.Data, nil
}

// Count returns the total from a one-record page.
func (r *Repository) Count(ctx context.Context, collection string, opts domain.FindOptions) (int, error) {
	ct, err := r.contentType(ctx, collection)
	if err != nil {
		return 0, err
	}

	opts.Populate = nil
	var resp listResponse
	if err := r.get(ctx, "/api/"+ct.Schema.PluralName, findQuery(opts, 1, 1), &resp); err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return resp.Meta.Pagination.Total, nil
}

// Collections lists user-defined collection types, sorted.
func (r *Repository) Collections(ctx context.Context) ([]string, error) {
	var resp struct {
		Data []contentType `json:"data"`
	}
	if err := r.get(ctx, "/api/content-type-builder/content-types", nil, &resp); err != nil {
		return nil, fmt.Errorf("list content types: %w", err)
	}

	var uids []string
	r.mu.Lock()
	for i := range resp.Data {
		ct := resp.Data[i]
		if !strings.HasPrefix(ct.UID, apiNamespace) || ct.Schema.Kind != "collectionType" {
			continue
		}
		uids = append(uids, ct.UID)
		r.types[ct.UID] = &ct
	}
	r.mu.Unlock()

	sort.Strings(uids)
	return uids, nil
}

func convertAttributes(raw map[string]rawAttribute) map[string]domain.AttributeSchema {
	attrs := make(map[string]domain.AttributeSchema, len(raw))
	for name, a := range raw {
		attr := domain.AttributeSchema{Type: domain.AttributeScalar}
		switch domain.AttributeType(a.Type) {
		case domain.AttributeComponent:
			attr.Type = domain.AttributeComponent
			attr.Component = a.Component
		case domain.AttributeDynamicZone:
			attr.Type = domain.AttributeDynamicZone
			attr.Components = append([]string(nil), a.Components...)
		case domain.AttributeMedia:
			attr.Type = domain.AttributeMedia
		case domain.AttributeRelation:
			attr.Type = domain.AttributeRelation
		}
		attrs[name] = attr
	}
	return attrs
}

func referencesComponents(attrs map[string]domain.AttributeSchema) bool {
	for _, a := range attrs {
		if a.Type == domain.AttributeComponent || a.Type == domain.AttributeDynamicZone {
			return true
		}
	}
	return false
}

// collectComponents copies every component reachable from attrs into out.
func collectComponents(attrs map[string]domain.AttributeSchema, all, out map[string]map[string]domain.AttributeSchema) {
	for _, a := range attrs {
		uids := a.Components
		if a.Type == domain.AttributeComponent {
			uids = []string{a.Component}
		}
		for _, uid := range uids {
			if _, seen := out[uid]; seen {
				continue
			}
			nested, ok := all[uid]
			if !ok {
				continue
			}
			out[uid] = nested
			collectComponents(nested, all, out)
		}
	}
}
