package elastic

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/olivere/elastic/v7"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
	"github.com/emonupg/essync/internal/logger"
)

// Ensure Engine implements the interface.
var _ driven.SearchEngine = (*Engine)(nil)

const alreadyExists = "resource_already_exists_exception"

// Config locates and authenticates against a cluster.
type Config struct {
	Host     string
	Username string
	Password string

	// Certificate is a CA bundle, either PEM text or a path to a PEM file.
	Certificate string

	// Refresh makes every document write visible to search before returning.
	Refresh bool

	// HTTPClient overrides the transport. Certificate is ignored when set.
	HTTPClient *http.Client
}

// Engine is a driven.SearchEngine backed by an Elasticsearch cluster.
type Engine struct {
	client  *elastic.Client
	host    string
	refresh bool
}

// New creates an engine. It does not contact the cluster.
func New(cfg Config) (*Engine, error) {
	if cfg.Host == "" {
		return nil, domain.ErrEngineNotConfigured
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		var err error
		httpClient, err = newHTTPClient(cfg.Certificate)
		if err != nil {
			return nil, err
		}
	}

	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(cfg.Host),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
		elastic.SetHttpClient(httpClient),
	}
	if cfg.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(cfg.Username, cfg.Password))
	}

	client, err := elastic.NewClient(opts...)
	if err != nil {
		return nil, wrap("create client", err)
	}

	logger.Debug("Elasticsearch client created for %s", cfg.Host)
	return &Engine{client: client, host: cfg.Host, refresh: cfg.Refresh}, nil
}

func newHTTPClient(certificate string) (*http.Client, error) {
	if certificate == "" {
		return &http.Client{Timeout: 30 * time.Second}, nil
	}

	pem := []byte(certificate)
	if !strings.HasPrefix(strings.TrimSpace(certificate), "-----BEGIN") {
		data, err := os.ReadFile(certificate)
		if err != nil {
			return nil, fmt.Errorf("reading certificate: %w", err)
		}
		pem = data
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("certificate contains no PEM blocks: %w", domain.ErrInvalidInput)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	return &http.Client{Transport: transport, Timeout: 30 * time.Second}, nil
}

// Ping checks that the cluster answers.
func (e *Engine) Ping(ctx context.Context) error {
	res, code, err := e.client.Ping(e.host).Do(ctx)
	if err != nil {
		return wrap("ping", err)
	}
	if code >= 300 {
		return domain.ConnectivityError("ping", fmt.Errorf("%w: status %d", domain.ErrEngineUnavailable, code))
	}
	if res != nil {
		logger.Debug("Elasticsearch %s answered ping", res.Version.Number)
	}
	return nil
}

// IndexExists reports whether a physical index exists.
func (e *Engine) IndexExists(ctx context.Context, name string) (bool, error) {
	exists, err := e.client.IndexExists(name).Do(ctx)
	if err != nil {
		return false, wrap("index exists "+name, err)
	}
	return exists, nil
}

// CreateIndex creates a physical index. No-op if it exists.
func (e *Engine) CreateIndex(ctx context.Context, name string) error {
	exists, err := e.IndexExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	logger.Info("Search index %s does not exist. Creating index.", name)
	res, err := e.client.CreateIndex(name).Do(ctx)
	if err != nil {
		if errorType(err) == alreadyExists {
			return nil
		}
		return wrap("create index "+name, err)
	}
	if !res.Acknowledged {
		logger.Warn("Create index %s not acknowledged", name)
	}
	return nil
}

// DeleteIndex deletes a physical index. No-op if it is absent.
func (e *Engine) DeleteIndex(ctx context.Context, name string) error {
	if _, err := e.client.DeleteIndex(name).Do(ctx); err != nil {
		if elastic.IsNotFound(err) {
			logger.Debug("Index %s does not exist, skipping deletion", name)
			return nil
		}
		return wrap("delete index "+name, err)
	}
	return nil
}

// AliasExists reports whether an alias points at any index.
func (e *Engine) AliasExists(ctx context.Context, alias string) (bool, error) {
	res, err := e.client.PerformRequest(ctx, elastic.PerformRequestOptions{
		Method:       http.MethodHead,
		Path:         "/_alias/" + url.PathEscape(alias),
		IgnoreErrors: []int{http.StatusNotFound},
	})
	if err != nil {
		return false, wrap("alias exists "+alias, err)
	}
	return res.StatusCode == http.StatusOK, nil
}

// UpdateAliases applies all actions in a single atomic request.
func (e *Engine) UpdateAliases(ctx context.Context, actions []driven.AliasAction) error {
	if len(actions) == 0 {
		return nil
	}

	svc := e.client.Alias()
	for _, a := range actions {
		switch a.Op {
		case driven.AliasAdd:
			svc = svc.Action(elastic.NewAliasAddAction(a.Alias).Index(a.Index))
		case driven.AliasRemove:
			svc = svc.Action(elastic.NewAliasRemoveAction(a.Alias).Index(a.Index))
		default:
			return fmt.Errorf("alias action %q: %w", a.Op, domain.ErrInvalidInput)
		}
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return wrap("update aliases", err)
	}
	if !res.Acknowledged {
		logger.Warn("Alias update not acknowledged")
	}
	return nil
}

// IndexDocument adds or replaces a document. index may be an alias.
func (e *Engine) IndexDocument(ctx context.Context, index, id string, body domain.Document) error {
	svc := e.client.Index().Index(index).Id(id).BodyJson(body)
	if e.refresh {
		svc = svc.Refresh("true")
	}
	if _, err := svc.Do(ctx); err != nil {
		return wrap("index document "+id, err)
	}
	return nil
}

// DeleteDocument removes a document. Not-found is not an error.
func (e *Engine) DeleteDocument(ctx context.Context, index, id string) error {
	svc := e.client.Delete().Index(index).Id(id)
	if e.refresh {
		svc = svc.Refresh("true")
	}
	if _, err := svc.Do(ctx); err != nil {
		if elastic.IsNotFound(err) {
			logger.Debug("Document %s already absent from %s", id, index)
			return nil
		}
		return wrap("delete document "+id, err)
	}
	return nil
}

// Refresh makes pending writes to index searchable.
func (e *Engine) Refresh(ctx context.Context, index string) error {
	if _, err := e.client.Refresh(index).Do(ctx); err != nil {
		return wrap("refresh "+index, err)
	}
	return nil
}

// Count returns the number of documents in an index.
func (e *Engine) Count(ctx context.Context, index string) (int, error) {
	n, err := e.client.Count(index).Do(ctx)
	if err != nil {
		return 0, wrap("count "+index, err)
	}
	return int(n), nil
}

// GetDocument fetches a document. Returns domain.ErrNotFound when absent.
func (e *Engine) GetDocument(ctx context.Context, index, id string) (domain.Document, error) {
	res, err := e.client.Get().Index(index).Id(id).Do(ctx)
	if err != nil {
		if elastic.IsNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, wrap("get document "+id, err)
	}
	if !res.Found {
		return nil, domain.ErrNotFound
	}
	return decodeSource(res.Source)
}

// Search runs a query string search and returns raw hits.
func (e *Engine) Search(ctx context.Context, index, query string, limit int) ([]domain.SearchHit, error) {
	svc := e.client.Search(index).Query(elastic.NewQueryStringQuery(query))
	if limit > 0 {
		svc = svc.Size(limit)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, wrap("search "+index, err)
	}
	if res.Hits == nil {
		return []domain.SearchHit{}, nil
	}

	hits := make([]domain.SearchHit, 0, len(res.Hits.Hits))
	for _, h := range res.Hits.Hits {
		src, err := decodeSource(h.Source)
		if err != nil {
			return nil, fmt.Errorf("decode hit %s: %w", h.Id, err)
		}
		hit := domain.SearchHit{Index: h.Index, ID: h.Id, Source: src}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func decodeSource(raw json.RawMessage) (domain.Document, error) {
	doc := domain.Document{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// wrap classifies transport failures as connectivity errors.
func wrap(op string, err error) error {
	if isConnErr(err) {
		return domain.ConnectivityError(op, fmt.Errorf("%w: %v", domain.ErrEngineUnavailable, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConnErr(err error) bool {
	if elastic.IsConnErr(err) || errors.Is(err, elastic.ErrNoClient) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func errorType(err error) string {
	var e *elastic.Error
	if errors.As(err, &e) && e.Details != nil {
		return e.Details.Type
	}
	return ""
}
