package strapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emonupg/essync/internal/core/domain"
)

// fakeStrapi serves a small article collection.
type fakeStrapi struct {
	mu      sync.Mutex
	queries []url.Values
	auth    string
}

var articles = []map[string]any{
	{"documentId": "a1", "title": "First", "publishedAt": "2024-01-01"},
	{"documentId": "a2", "title": "Second", "publishedAt": "2024-01-02"},
	{"documentId": "a3", "title": "Draft"},
}

func (f *fakeStrapi) authHeader() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth
}

func (f *fakeStrapi) recorded() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.queries...)
}

func (f *fakeStrapi) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux.HandleFunc("/api/content-type-builder/content-types", func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{"data": []any{
			map[string]any{"uid": "api::page.page", "schema": map[string]any{"kind": "collectionType", "pluralName": "pages"}},
			map[string]any{"uid": "api::article.article", "schema": map[string]any{"kind": "collectionType", "pluralName": "articles"}},
			map[string]any{"uid": "api::home.home", "schema": map[string]any{"kind": "singleType", "pluralName": "homes"}},
			map[string]any{"uid": "plugin::users-permissions.user", "schema": map[string]any{"kind": "collectionType"}},
		}})
	})
	mux.HandleFunc("/api/content-type-builder/content-types/api::article.article", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.auth = r.Header.Get("Authorization")
		f.mu.Unlock()
		write(w, map[string]any{"data": map[string]any{
			"uid": "api::article.article",
			"schema": map[string]any{
				"kind":            "collectionType",
				"pluralName":      "articles",
				"draftAndPublish": true,
				"attributes": map[string]any{
					"title":  map[string]any{"type": "string"},
					"cover":  map[string]any{"type": "media"},
					"seo":    map[string]any{"type": "component", "component": "shared.seo"},
					"blocks": map[string]any{"type": "dynamiczone", "components": []string{"shared.quote"}},
					"author": map[string]any{"type": "relation"},
				},
			},
		}})
	})
	mux.HandleFunc("/api/content-type-builder/components", func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{"data": []any{
			map[string]any{"uid": "shared.seo", "schema": map[string]any{"attributes": map[string]any{
				"metaTitle": map[string]any{"type": "string"},
				"image":     map[string]any{"type": "media"},
			}}},
			map[string]any{"uid": "shared.quote", "schema": map[string]any{"attributes": map[string]any{
				"body": map[string]any{"type": "text"},
			}}},
			map[string]any{"uid": "shared.unused", "schema": map[string]any{"attributes": map[string]any{}}},
		}})
	})
	mux.HandleFunc("/api/articles", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f.mu.Lock()
		f.queries = append(f.queries, q)
		f.mu.Unlock()

		records := articles
		if q.Get("status") == "published" {
			records = articles[:2]
		}
		page, _ := strconv.Atoi(q.Get("pagination[page]"))
		size, _ := strconv.Atoi(q.Get("pagination[pageSize]"))
		start := (page - 1) * size
		end := min(start+size, len(records))
		pageCount := (len(records) + size - 1) / size
		var data []map[string]any
		if start < len(records) {
			data = records[start:end]
		}
		write(w, map[string]any{
			"data": data,
			"meta": map[string]any{"pagination": map[string]any{
				"page": page, "pageSize": size, "pageCount": pageCount, "total": len(records),
			}},
		})
	})
	mux.HandleFunc("/api/articles/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/api/articles/"):]
		for _, a := range articles {
			if a["documentId"] == id {
				write(w, map[string]any{"data": a})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		write(w, map[string]any{"error": map[string]any{"status": 404, "name": "NotFoundError"}})
	})
	mux.HandleFunc("/api/content-type-builder/content-types/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	return mux
}

func newTestRepository(t *testing.T, pageSize int) (*Repository, *fakeStrapi) {
	t.Helper()
	fake := &fakeStrapi{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	repo, err := New(Config{BaseURL: srv.URL + "/", Token: "secret", PageSize: pageSize})
	require.NoError(t, err)
	return repo, fake
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "localhost:1337"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRepository_Schema(t *testing.T) {
	repo, fake := newTestRepository(t, 0)

	schema, err := repo.Schema(context.Background(), "api::article.article")

	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", fake.authHeader())
	assert.True(t, schema.DraftPublish)
	assert.Equal(t, domain.AttributeScalar, schema.Attributes["title"].Type)
	assert.Equal(t, domain.AttributeMedia, schema.Attributes["cover"].Type)
	assert.Equal(t, domain.AttributeRelation, schema.Attributes["author"].Type)
	assert.Equal(t, "shared.seo", schema.Attributes["seo"].Component)
	assert.Equal(t, []string{"shared.quote"}, schema.Attributes["blocks"].Components)
	assert.Len(t, schema.Components, 2)
	assert.Equal(t, domain.AttributeMedia, schema.Components["shared.seo"]["image"].Type)
	assert.NotContains(t, schema.Components, "shared.unused")
}

func TestRepository_Schema_UnknownCollection(t *testing.T) {
	repo, _ := newTestRepository(t, 0)

	_, err := repo.Schema(context.Background(), "api::missing.missing")

	assert.ErrorIs(t, err, domain.ErrUnknownCollection)
}

func TestRepository_FindMany_Pages(t *testing.T) {
	repo, fake := newTestRepository(t, 2)
	populate := map[string]any{"seo": map[string]any{"populate": map[string]any{"image": map[string]any{"fields": []any{"*"}}}}}

	records, err := repo.FindMany(context.Background(), "api::article.article", domain.FindOptions{
		Sort:     domain.LiveRecordsSort,
		Populate: populate,
	})

	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "a3", records[2].DocumentID())
	queries := fake.recorded()
	require.Len(t, queries, 2)
	first := queries[0]
	assert.Equal(t, "createdAt:desc", first.Get("sort"))
	assert.Empty(t, first.Get("status"))
	assert.Equal(t, "*", first.Get("populate[seo][populate][image][fields][0]"))
}

func TestRepository_FindMany_PublishedOnly(t *testing.T) {
	repo, _ := newTestRepository(t, 0)

	records, err := repo.FindMany(context.Background(), "api::article.article", domain.FindOptions{Status: domain.StatusPublished})

	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestRepository_FindOne(t *testing.T) {
	repo, _ := newTestRepository(t, 0)

	record, err := repo.FindOne(context.Background(), "api::article.article", "a2", nil)

	require.NoError(t, err)
	assert.Equal(t, "Second", record["title"])
}

func TestRepository_FindOne_NotFound(t *testing.T) {
	repo, _ := newTestRepository(t, 0)

	_, err := repo.FindOne(context.Background(), "api::article.article", "zz", nil)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_Count(t *testing.T) {
	repo, fake := newTestRepository(t, 0)
	ctx := context.Background()

	all, err := repo.Count(ctx, "api::article.article", domain.FindOptions{})
	require.NoError(t, err)
	published, err := repo.Count(ctx, "api::article.article", domain.FindOptions{Status: domain.StatusPublished})
	require.NoError(t, err)

	assert.Equal(t, 3, all)
	assert.Equal(t, 2, published)
	assert.Equal(t, "1", fake.recorded()[0].Get("pagination[pageSize]"))
}

func TestRepository_Collections(t *testing.T) {
	repo, _ := newTestRepository(t, 0)

	uids, err := repo.Collections(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"api::article.article", "api::page.page"}, uids)
}

func TestRepository_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	repo, err := New(Config{BaseURL: baseURL})
	require.NoError(t, err)

	_, err = repo.Collections(context.Background())

	require.Error(t, err)
	assert.True(t, domain.IsConnectivityError(err))
}

func TestRepository_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	repo, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = repo.Collections(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.False(t, domain.IsConnectivityError(err))
}

func TestEncodeNested(t *testing.T) {
	values := url.Values{}

	encodeNested(values, "populate[blocks]", map[string]any{
		"on": map[string]any{
			"shared.quote": map[string]any{"populate": map[string]any{}},
			"shared.media": map[string]any{"populate": map[string]any{"file": map[string]any{"fields": []any{"*"}}}},
		},
	})

	assert.Equal(t, "*", values.Get("populate[blocks][on][shared.media][populate][file][fields][0]"))
	assert.Len(t, values, 1)
}
