// Package source opens the loader's input files, which may live on local
// disk or in S3 (s3://bucket/key).
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

// ErrNoS3 is returned when an s3:// path is opened without an S3 client.
var ErrNoS3 = errors.New("s3 path given but no S3 client configured")

// S3API is the subset of the S3 client used to read objects.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Opener opens local files and S3 objects by path.
type Opener struct {
	s3 S3API
}

// NewOpener returns an Opener. client may be nil, in which case only local
// paths can be opened.
func NewOpener(client S3API) *Opener {
	return &Opener{s3: client}
}

// S3Config configures the S3 client used for s3:// inputs.
type S3Config struct {
	// Endpoint is optional; if set it enables a custom endpoint (e.g. MinIO).
	Endpoint  string
	PathStyle bool
}

// NewS3Client builds an S3 client from an AWS config.
func NewS3Client(awsCfg aws.Config, cfg S3Config) *s3.Client {
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
}

// IsS3 reports whether path names an S3 object.
func IsS3(path string) bool {
	return strings.HasPrefix(path, s3Scheme)
}

// ParseS3URI splits s3://bucket/key into bucket and key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !IsS3(uri) {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}

	rest := strings.TrimPrefix(uri, s3Scheme)

	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri %q must be s3://bucket/key", uri)
	}

	return bucket, key, nil
}

// Open opens path for reading.
func (o *Opener) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if !IsS3(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}

		return f, nil
	}

	if o == nil || o.s3 == nil {
		return nil, ErrNoS3
	}

	bucket, key, err := ParseS3URI(path)
	if err != nil {
		return nil, err
	}

	out, err := o.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s from S3: %w", path, err)
	}

	return out.Body, nil
}
