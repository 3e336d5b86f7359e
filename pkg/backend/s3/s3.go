// Package s3 implements a storage backend keeping file content in Amazon
// S3 or any S3-compatible object store (MinIO, Localstack, Cubbit DS3).
//
// Storage model: each data file owns one object under a UUID key below an
// optional prefix. S3 has no true random access, so:
//   - Reads use ranged GetObject requests
//   - Writes are read-modify-write: fetch the object, splice the new
//     bytes, PutObject the result
//   - Size uses HeadObject
//
// The owning node's lock serializes operations per file, which makes the
// read-modify-write cycle safe within one process.
//
// Thread safety: the S3 client is safe for concurrent use; per-object
// consistency is last-write-wins, as with the upstream store.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/driftlab/driftfs/pkg/fs"
	"github.com/driftlab/driftfs/pkg/metrics"
)

// Config contains configuration for the S3 backend.
type Config struct {
	// Client is the configured S3 client
	Client *awss3.Client

	// Bucket is the bucket name. The bucket must already exist.
	Bucket string

	// KeyPrefix is an optional prefix for all object keys.
	// Example: "driftfs/content/" yields keys like
	// "driftfs/content/550e8400-...".
	KeyPrefix string

	// Metrics receives storage operation observations. Nil disables
	// collection.
	Metrics metrics.StorageMetrics
}

// Backend creates files whose content lives as S3 objects.
type Backend struct {
	client    *awss3.Client
	bucket    string
	keyPrefix string
	metrics   metrics.StorageMetrics
}

// New verifies bucket access and returns the backend.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("s3 backend: client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 backend: bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &awss3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.NewNoopStorageMetrics()
	}
	return &Backend{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
		metrics:   m,
	}, nil
}

// CreateFile allocates a fresh object key and uploads an empty object so
// size queries work immediately after creation.
func (b *Backend) CreateFile(ctx context.Context, mode uint32) (*fs.DataFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := b.keyPrefix + uuid.NewString()
	_, err := b.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
		return nil, &fs.Error{Code: fs.ErrIOError, Message: fmt.Sprintf("failed to allocate object %s: %v", key, err)}
	}

	return fs.NewDataFile(mode, b, &content{backend: b, key: key}), nil
}

// CreateDirectory creates a directory node. Directory entries live in
// the node model; no object is created.
func (b *Backend) CreateDirectory(ctx context.Context, mode uint32) (*fs.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fs.NewDirectory(mode, b), nil
}

// content is the byte store of one object-backed file.
type content struct {
	backend *Backend
	key     string
}

func (c *content) ReadAt(ctx context.Context, p []byte, off int64) error {
	if off < 0 {
		return &fs.Error{Code: fs.ErrInvalidArgument, Message: "negative read offset"}
	}
	if len(p) == 0 {
		return ctx.Err()
	}

	// Ranged read. The range may extend past the object's end when the
	// caller reads a tail shorter than its buffer; S3 returns the
	// available bytes and we zero-fill the rest.
	rangeHeader := fmt.Sprintf("bytes=%d-%d", off, off+int64(len(p))-1)
	start := time.Now()
	result, err := c.backend.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(c.backend.bucket),
		Key:    aws.String(c.key),
		Range:  aws.String(rangeHeader),
	})
	c.backend.metrics.RecordOperation("range_get", time.Since(start), err)
	if err != nil {
		return &fs.Error{Code: fs.ErrIOError, Message: fmt.Sprintf("s3 read of %s failed: %v", c.key, err)}
	}
	defer result.Body.Close()

	for i := range p {
		p[i] = 0
	}
	if _, err := io.ReadFull(result.Body, p); err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return &fs.Error{Code: fs.ErrIOError, Message: fmt.Sprintf("s3 read of %s failed: %v", c.key, err)}
	}
	c.backend.metrics.RecordBytes("out", len(p))
	return nil
}

func (c *content) WriteAt(ctx context.Context, p []byte, off int64) error {
	if off < 0 {
		return &fs.Error{Code: fs.ErrInvalidArgument, Message: "negative write offset"}
	}

	// Read-modify-write: fetch the whole object, splice, re-upload.
	// Acceptable for the object sizes this backend targets; a chunked
	// layout would be the next step for very large files.
	result, err := c.backend.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(c.backend.bucket),
		Key:    aws.String(c.key),
	})
	if err != nil {
		return &fs.Error{Code: fs.ErrIOError, Message: fmt.Sprintf("s3 read of %s failed: %v", c.key, err)}
	}
	data, err := io.ReadAll(result.Body)
	result.Body.Close()
	if err != nil {
		return &fs.Error{Code: fs.ErrIOError, Message: fmt.Sprintf("s3 read of %s failed: %v", c.key, err)}
	}

	if need := off + int64(len(p)); need > int64(len(data)) {
		grown := make([]byte, need)
		copy(grown, data)
		data = grown
	}
	copy(data[off:], p)

	start := time.Now()
	_, err = c.backend.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(c.backend.bucket),
		Key:    aws.String(c.key),
		Body:   bytes.NewReader(data),
	})
	c.backend.metrics.RecordOperation("put", time.Since(start), err)
	if err != nil {
		return &fs.Error{Code: fs.ErrIOError, Message: fmt.Sprintf("s3 write of %s failed: %v", c.key, err)}
	}
	c.backend.metrics.RecordBytes("in", len(p))
	return nil
}

func (c *content) Size(ctx context.Context) (int64, error) {
	start := time.Now()
	result, err := c.backend.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(c.backend.bucket),
		Key:    aws.String(c.key),
	})
	c.backend.metrics.RecordOperation("head", time.Since(start), err)
	if err != nil {
		return 0, &fs.Error{Code: fs.ErrIOError, Message: fmt.Sprintf("s3 size lookup of %s failed: %v", c.key, err)}
	}
	if result.ContentLength == nil {
		return 0, nil
	}
	return *result.ContentLength, nil
}
