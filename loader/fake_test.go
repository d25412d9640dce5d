package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/helix-tools/metadata-loader/notify"
	"github.com/helix-tools/metadata-loader/source"
	"github.com/helix-tools/metadata-loader/types"
)

type createCall struct {
	uri  string
	body map[string]any
}

// memoryRepo is an in-memory repository service.
type memoryRepo struct {
	mu sync.Mutex

	authErr    error
	principals []types.Principal
	deleteErr  map[string]error

	nextID   int
	entities map[string]map[string]any
	order    []string
	creates  []createCall
	updates  map[string]map[string]any
	deleted  []string
	listed   []string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		principals: []types.Principal{
			{ID: "10", Name: "Identified Users"},
			{ID: "11", Name: "Sage Curators"},
			{ID: "12", Name: "Public"},
		},
		deleteErr: map[string]error{},
		entities:  map[string]map[string]any{},
		updates:   map[string]map[string]any{},
	}
}

func (m *memoryRepo) Authenticate(ctx context.Context, user, password string) error {
	return m.authErr
}

func (m *memoryRepo) GetPrincipals(ctx context.Context) ([]types.Principal, error) {
	return m.principals, nil
}

func (m *memoryRepo) CreateEntity(ctx context.Context, uri string, entity, result any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	body, err := toMap(entity)
	if err != nil {
		return err
	}

	m.nextID++
	id := fmt.Sprint(m.nextID)
	body["id"] = id
	body["uri"] = uri + "/" + id
	if uri == types.DatasetURI {
		body["annotations"] = uri + "/" + id + "/annotations"
	}

	m.creates = append(m.creates, createCall{uri: uri, body: body})
	m.entities[uri+"/"+id] = body
	m.order = append(m.order, uri+"/"+id)

	return fromMap(body, result)
}

func (m *memoryRepo) GetEntity(ctx context.Context, uri string, result any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listed = append(m.listed, uri)

	if entity, ok := m.entities[uri]; ok {
		return fromMap(entity, result)
	}

	collection, _, _ := strings.Cut(uri, "?")
	var results []map[string]any
	for _, key := range m.order {
		if e, ok := m.entities[key]; ok && strings.HasPrefix(key, collection+"/") {
			results = append(results, e)
		}
	}

	list := types.EntityList{TotalNumberOfResults: len(results), Results: results}
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, result)
}

func (m *memoryRepo) UpdateEntity(ctx context.Context, uri string, payload map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var stored map[string]any
	if err := json.Unmarshal(b, &stored); err != nil {
		return err
	}
	m.updates[uri] = stored

	return nil
}

func (m *memoryRepo) DeleteEntity(ctx context.Context, uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.deleteErr[uri]; err != nil {
		return err
	}
	delete(m.entities, uri)
	m.deleted = append(m.deleted, uri)

	return nil
}

func (m *memoryRepo) createsOf(uri string) []map[string]any {
	var out []map[string]any
	for _, c := range m.creates {
		if c.uri == uri {
			out = append(out, c.body)
		}
	}
	return out
}

func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromMap(m map[string]any, result any) error {
	if result == nil {
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, result)
}

type recordingNotifier struct {
	events []notify.Event
	err    error
}

func (n *recordingNotifier) Publish(ctx context.Context, ev notify.Event) error {
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, ev)
	return nil
}

var errBoom = errors.New("boom")

// writeFile writes content under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func localOpener() *source.Opener {
	return source.NewOpener(nil)
}
