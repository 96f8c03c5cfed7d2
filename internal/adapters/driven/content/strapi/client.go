package strapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emonupg/essync/internal/core/domain"
)

// Default configuration values.
const (
	DefaultTimeout  = 30 * time.Second
	DefaultPageSize = 100
)

// errNotFound marks a 404 response before callers map it to a domain error.
var errNotFound = errors.New("strapi: not found")

// Config holds configuration for the Strapi repository.
type Config struct {
	// BaseURL is the Strapi server URL, e.g. http://localhost:1337.
	BaseURL string

	// Token is an API token sent as a bearer credential. Optional.
	Token string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// PageSize is the number of records fetched per request (default: 100).
	PageSize int

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// get issues a GET request and decodes the JSON response into out.
func (r *Repository) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := r.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if isConnErr(err) {
			return domain.ConnectivityError("strapi "+path, err)
		}
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			return fmt.Errorf("strapi error (status %d): failed to read response", resp.StatusCode)
		}
		return fmt.Errorf("strapi error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isConnErr(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
