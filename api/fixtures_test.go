package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const (
	testUser     = "loader@example.org"
	testPassword = "hunter2"
	testToken    = "session-abc"
)

// fakeRepo is an in-memory stand-in for the repository and auth services.
type fakeRepo struct {
	mu       sync.Mutex
	nextID   int
	entities map[string]map[string]any
	requests []string
	headers  []http.Header
}

func newFakeRepo(t *testing.T) (*fakeRepo, *httptest.Server) {
	t.Helper()

	repo := &fakeRepo{entities: map[string]map[string]any{}}
	server := httptest.NewServer(http.HandlerFunc(repo.serve))
	t.Cleanup(server.Close)

	return repo, server
}

func newFakeClient(t *testing.T) (*fakeRepo, *Client) {
	t.Helper()

	repo, server := newFakeRepo(t)
	client := NewClient(ClientConfig{
		RepoEndpoint: server.URL + "/repo/v1",
		AuthEndpoint: server.URL + "/auth/v1",
	})

	return repo, client
}

func (f *fakeRepo) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.headers = append(f.headers, r.Header.Clone())

	if r.URL.Path == "/auth/v1/session" {
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["email"] != testUser || creds["password"] != testPassword {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"reason": "bad credentials"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"sessionToken": testToken})
		return
	}

	if r.Header.Get(sessionTokenHeader) != testToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"reason": "not authenticated"})
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/repo/v1")

	switch {
	case path == "/principals" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"totalNumberOfResults": 2,
			"results": []map[string]string{
				{"id": "1", "name": "Sage Curators"},
				{"id": "2", "name": "Identified Users"},
			},
		})

	case r.Method == http.MethodPost:
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"reason": err.Error()})
			return
		}
		f.nextID++
		id := fmt.Sprint(f.nextID)
		uri := path + "/" + id
		body["id"] = id
		body["uri"] = "/repo/v1" + uri
		body["etag"] = "0"
		body["annotations"] = "/repo/v1" + uri + "/annotations"
		f.entities[uri] = body
		f.entities[uri+"/annotations"] = map[string]any{"etag": "0", "stringAnnotations": map[string]any{}}
		writeJSON(w, http.StatusCreated, body)

	case r.Method == http.MethodGet:
		if entity, ok := f.entities[path]; ok {
			writeJSON(w, http.StatusOK, entity)
			return
		}
		var results []map[string]any
		for uri, entity := range f.entities {
			if strings.HasPrefix(uri, path+"/") && !strings.HasSuffix(uri, "/annotations") {
				results = append(results, entity)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"totalNumberOfResults": len(results), "results": results})

	case r.Method == http.MethodPut:
		current, ok := f.entities[path]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"reason": "no such entity"})
			return
		}
		if current["etag"] != r.Header.Get("ETag") {
			writeJSON(w, http.StatusPreconditionFailed, map[string]string{"reason": "stale etag"})
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["etag"] = "1"
		f.entities[path] = body
		writeJSON(w, http.StatusOK, body)

	case r.Method == http.MethodDelete:
		if _, ok := f.entities[path]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"reason": "no such entity"})
			return
		}
		delete(f.entities, path)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeRepo) entity(uri string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.entities[uri]
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
