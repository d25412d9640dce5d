package loader

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/helix-tools/metadata-loader/types"
)

func seedDatasets(t *testing.T, repo *memoryRepo, n int) {
	t.Helper()

	for i := range n {
		if err := repo.CreateEntity(context.Background(), types.DatasetURI, types.Dataset{Name: fmt.Sprint("d", i)}, nil); err != nil {
			t.Fatal(err)
		}
	}
}

func TestNukeDeletesInReverseOrder(t *testing.T) {
	repo := newMemoryRepo()
	seedDatasets(t, repo, 3)

	n, err := Nuke(context.Background(), repo, "u", "p", nil)
	if err != nil {
		t.Fatalf("Nuke() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Nuke() deleted %d, want 3", n)
	}

	want := []string{"/dataset/3", "/dataset/2", "/dataset/1"}
	if !reflect.DeepEqual(repo.deleted, want) {
		t.Errorf("deleted = %v, want %v", repo.deleted, want)
	}
}

func TestNukeContinuesPastFailures(t *testing.T) {
	repo := newMemoryRepo()
	seedDatasets(t, repo, 3)
	repo.deleteErr["/dataset/2"] = errBoom

	n, err := Nuke(context.Background(), repo, "u", "p", nil)
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected joined delete error, got %v", err)
	}
	if n != 2 {
		t.Errorf("Nuke() deleted %d, want 2", n)
	}
	if len(repo.deleted) != 2 {
		t.Errorf("deleted = %v", repo.deleted)
	}
}

func TestNukeAuthenticationFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.authErr = errBoom

	if _, err := Nuke(context.Background(), repo, "u", "p", nil); !errors.Is(err, errBoom) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestNukeEmptyRepository(t *testing.T) {
	n, err := Nuke(context.Background(), newMemoryRepo(), "u", "p", nil)
	if err != nil || n != 0 {
		t.Errorf("Nuke() = %d, %v; want 0, nil", n, err)
	}
}

func TestEntityURI(t *testing.T) {
	tests := []struct {
		entity map[string]any
		want   string
	}{
		{map[string]any{"uri": "/repo/v1/dataset/9", "id": "9"}, "/repo/v1/dataset/9"},
		{map[string]any{"id": "9"}, "/dataset/9"},
		{map[string]any{}, ""},
	}

	for _, tt := range tests {
		if got := entityURI(types.DatasetURI, tt.entity); got != tt.want {
			t.Errorf("entityURI(%v) = %q, want %q", tt.entity, got, tt.want)
		}
	}
}
