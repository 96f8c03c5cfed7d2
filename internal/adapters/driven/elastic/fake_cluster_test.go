package elastic

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
)

// fakeFailure forces an error response for one method and path.
type fakeFailure struct {
	status int
	typ    string
}

// fakeCluster is a small in-memory stand-in for the Elasticsearch REST API.
type fakeCluster struct {
	mu       sync.Mutex
	indices  map[string]map[string]json.RawMessage
	aliases  map[string]map[string]bool
	requests []string
	fail     map[string]fakeFailure
}

func newFakeCluster(t *testing.T) (*fakeCluster, *httptest.Server) {
	t.Helper()
	c := &fakeCluster{
		indices: make(map[string]map[string]json.RawMessage),
		aliases: make(map[string]map[string]bool),
		fail:    make(map[string]fakeFailure),
	}
	srv := httptest.NewServer(c)
	t.Cleanup(srv.Close)
	return c, srv
}

func (c *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := r.Method + " " + r.URL.Path
	c.requests = append(c.requests, key+queryString(r))
	if f, ok := c.fail[key]; ok {
		typ := f.typ
		if typ == "" {
			typ = "fake_failure"
		}
		writeError(w, f.status, typ)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.URL.Path == "/":
		writeJSON(w, http.StatusOK, map[string]any{
			"name":    "fake",
			"version": map[string]any{"number": "7.17.0"},
			"tagline": "You Know, for Search",
		})
	case parts[0] == "_aliases" && r.Method == http.MethodPost:
		c.updateAliases(w, r)
	case parts[0] == "_alias" && len(parts) == 2:
		if len(c.aliases[parts[1]]) == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case len(parts) == 1:
		c.indexLevel(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "_count":
		writeJSON(w, http.StatusOK, map[string]any{"count": c.countLocked(parts[0])})
	case len(parts) == 2 && parts[1] == "_refresh":
		if _, ok := c.indices[parts[0]]; !ok {
			writeError(w, http.StatusNotFound, "index_not_found_exception")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"_shards": map[string]any{"total": 1, "successful": 1, "failed": 0},
		})
	case len(parts) == 2 && parts[1] == "_search":
		c.search(w, parts[0])
	case len(parts) == 3 && parts[1] == "_doc":
		c.docLevel(w, r, parts[0], parts[2])
	default:
		writeError(w, http.StatusBadRequest, "unsupported_request")
	}
}

func (c *fakeCluster) indexLevel(w http.ResponseWriter, r *http.Request, index string) {
	_, exists := c.indices[index]
	switch r.Method {
	case http.MethodHead:
		if exists {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case http.MethodPut:
		if exists {
			writeError(w, http.StatusBadRequest, "resource_already_exists_exception")
			return
		}
		c.indices[index] = make(map[string]json.RawMessage)
		writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true, "shards_acknowledged": true, "index": index})
	case http.MethodDelete:
		if !exists {
			writeError(w, http.StatusNotFound, "index_not_found_exception")
			return
		}
		delete(c.indices, index)
		for _, set := range c.aliases {
			delete(set, index)
		}
		writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	}
}

func (c *fakeCluster) docLevel(w http.ResponseWriter, r *http.Request, index, id string) {
	targets := c.resolve(index)
	switch r.Method {
	case http.MethodPut, http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		if len(targets) == 0 {
			c.indices[index] = make(map[string]json.RawMessage)
			targets = []string{index}
		}
		if len(targets) > 1 {
			writeError(w, http.StatusBadRequest, "illegal_argument_exception")
			return
		}
		c.indices[targets[0]][id] = body
		writeJSON(w, http.StatusCreated, map[string]any{"_index": targets[0], "_id": id, "result": "created"})
	case http.MethodDelete:
		for _, t := range targets {
			if _, ok := c.indices[t][id]; ok {
				delete(c.indices[t], id)
				writeJSON(w, http.StatusOK, map[string]any{"_index": t, "_id": id, "result": "deleted"})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"_index": index, "_id": id, "result": "not_found"})
	case http.MethodGet:
		for _, t := range targets {
			if doc, ok := c.indices[t][id]; ok {
				writeJSON(w, http.StatusOK, map[string]any{"_index": t, "_id": id, "found": true, "_source": doc})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"_index": index, "_id": id, "found": false})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	}
}

func (c *fakeCluster) updateAliases(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Actions []map[string]struct {
			Index   string   `json:"index"`
			Indices []string `json:"indices"`
			Alias   string   `json:"alias"`
		} `json:"actions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "parse_exception")
		return
	}
	for _, action := range req.Actions {
		for op, a := range action {
			indices := a.Indices
			if a.Index != "" {
				indices = append(indices, a.Index)
			}
			set := c.aliases[a.Alias]
			if set == nil {
				set = make(map[string]bool)
				c.aliases[a.Alias] = set
			}
			for _, idx := range indices {
				switch {
				case op == "add":
					set[idx] = true
				case op == "remove" && idx == "*":
					c.aliases[a.Alias] = make(map[string]bool)
				case op == "remove":
					delete(set, idx)
				}
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
}

func (c *fakeCluster) search(w http.ResponseWriter, index string) {
	hits := []map[string]any{}
	for _, t := range c.resolve(index) {
		ids := make([]string, 0, len(c.indices[t]))
		for id := range c.indices[t] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			hits = append(hits, map[string]any{"_index": t, "_id": id, "_score": 1.5, "_source": c.indices[t][id]})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"took": 1,
		"hits": map[string]any{
			"total":     map[string]any{"value": len(hits), "relation": "eq"},
			"max_score": 1.5,
			"hits":      hits,
		},
	})
}

func (c *fakeCluster) resolve(name string) []string {
	if _, ok := c.indices[name]; ok {
		return []string{name}
	}
	var out []string
	for idx := range c.aliases[name] {
		out = append(out, idx)
	}
	sort.Strings(out)
	return out
}

func (c *fakeCluster) countLocked(index string) int {
	n := 0
	for _, t := range c.resolve(index) {
		n += len(c.indices[t])
	}
	return n
}

func (c *fakeCluster) requestLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.requests...)
}

func (c *fakeCluster) failOn(key string, f fakeFailure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail[key] = f
}

func (c *fakeCluster) sawRequest(prefix string) bool {
	for _, r := range c.requestLog() {
		if strings.HasPrefix(r, prefix) {
			return true
		}
	}
	return false
}

func queryString(r *http.Request) string {
	if r.URL.RawQuery == "" {
		return ""
	}
	return "?" + r.URL.RawQuery
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, typ string) {
	writeJSON(w, status, map[string]any{
		"error":  map[string]any{"type": typ, "reason": fmt.Sprintf("fake %s", typ)},
		"status": status,
	})
}
