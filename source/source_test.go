package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	objects map[string]string
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}

	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri     string
		bucket  string
		key     string
		wantErr bool
	}{
		{"s3://bucket/a/b.csv", "bucket", "a/b.csv", false},
		{"s3://bucket", "", "", true},
		{"s3:///key", "", "", true},
		{"/local/path", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, key, err := ParseS3URI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseS3URI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
			if bucket != tt.bucket || key != tt.key {
				t.Errorf("ParseS3URI(%q) = %q, %q", tt.uri, bucket, key)
			}
		})
	}
}

func TestOpenLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	rc, err := NewOpener(nil).Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "hello" {
		t.Errorf("read %q, want %q", data, "hello")
	}
}

func TestOpenLocalMissing(t *testing.T) {
	_, err := NewOpener(nil).Open(context.Background(), "/nonexistent/file.txt")
	if err == nil || !strings.Contains(err.Error(), "failed to open file") {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestOpenS3(t *testing.T) {
	opener := NewOpener(&fakeS3{objects: map[string]string{"data/layers/x.txt": "a\nb\n"}})

	rc, err := opener.Open(context.Background(), "s3://data/layers/x.txt")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "a\nb\n" {
		t.Errorf("read %q", data)
	}

	if _, err := opener.Open(context.Background(), "s3://data/missing"); err == nil {
		t.Error("expected error for missing object")
	}
}

func TestOpenS3WithoutClient(t *testing.T) {
	_, err := NewOpener(nil).Open(context.Background(), "s3://bucket/key")
	if !errors.Is(err, ErrNoS3) {
		t.Fatalf("expected ErrNoS3, got %v", err)
	}
}
