package loader

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestReadChecksums(t *testing.T) {
	manifest := strings.Join([]string{
		"aaaa /data/file.txt",
		"bbbb   //double/slash.txt",
		"cccc relative.txt",
		"dddd /data/file.txt",
	}, "\n")

	idx, err := ReadChecksums(strings.NewReader(manifest))
	if err != nil {
		t.Fatalf("ReadChecksums() error = %v", err)
	}

	tests := []struct {
		path string
		want string
	}{
		{"data/file.txt", "dddd"},
		{"/data/file.txt", "dddd"},
		{"double/slash.txt", "bbbb"},
		{"relative.txt", "cccc"},
	}

	for _, tt := range tests {
		got, ok := idx.Lookup(tt.path)
		if !ok || got != tt.want {
			t.Errorf("Lookup(%q) = %q, %v; want %q", tt.path, got, ok, tt.want)
		}
	}

	if _, ok := idx.Lookup("missing.txt"); ok {
		t.Error("Lookup(missing.txt) should miss")
	}
}

func TestReadChecksumsMalformed(t *testing.T) {
	_, err := ReadChecksums(strings.NewReader("aaaa /ok\njustonefield\n"))
	if !errors.Is(err, ErrMalformedChecksumLine) {
		t.Fatalf("expected ErrMalformedChecksumLine, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the line: %v", err)
	}
}

func TestLoadChecksumsMissingFile(t *testing.T) {
	l := New(newMemoryRepo(), Options{Opener: localOpener()})

	if _, err := l.loadChecksums(context.Background(), t.TempDir()+"/nope.csv"); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}
