// Package s3blob persists ciphertext blobs in S3 (or an S3-compatible
// service), for deployments that want cold, large-document payloads off
// the hot index path.
package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/relaydoc/relaydoc/pkg/blobstore"
)

// Config holds S3 connection and key-layout settings.
type Config struct {
	// Bucket is the S3 bucket name.
	Bucket string

	// Region is the AWS region (optional, uses SDK default if empty).
	Region string

	// Endpoint is the S3 endpoint URL (optional, for S3-compatible
	// services such as MinIO).
	Endpoint string

	// KeyPrefix is prepended to every blob key, e.g. "blobs/".
	KeyPrefix string

	// ForcePathStyle is required for most S3-compatible services.
	ForcePathStyle bool
}

// Store is a blobstore.Store backed by S3.
type Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// New creates a Store with an existing S3 client.
func New(client *s3.Client, cfg Config) *Store {
	return &Store{client: client, bucket: cfg.Bucket, keyPrefix: cfg.KeyPrefix}
}

// NewFromConfig builds an S3 client from cfg and the default AWS
// credential chain, then returns a Store.
func NewFromConfig(ctx context.Context, cfg Config) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3blob: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(cfg.Endpoint) })
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
	}

	return New(s3.NewFromConfig(awsCfg, s3Opts...), cfg), nil
}

func (s *Store) fullKey(id string) string {
	return s.keyPrefix + id
}

func (s *Store) Put(ctx context.Context, payload []byte) (string, error) {
	id := blobstore.IDFor(payload)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(id)),
		Body:   bytes.NewReader(payload),
	})
	if err != nil {
		return "", fmt.Errorf("s3blob: put %s: %w", id, err)
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(id)),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, fmt.Errorf("s3blob: get %s: %w", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("s3blob: read body for %s: %w", id, err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(id)),
	})
	if err != nil {
		return fmt.Errorf("s3blob: delete %s: %w", id, err)
	}
	return nil
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "NoSuchKey") ||
		strings.Contains(errStr, "NotFound") ||
		strings.Contains(errStr, "404")
}

var _ blobstore.Store = (*Store)(nil)
