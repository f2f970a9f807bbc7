package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrObjectNotFound is returned by GetObject when the key does not exist.
	ErrObjectNotFound = errors.New("storage: object not found")
	// ErrBucketNotFound is returned by EnsureBucket when the bucket is missing
	// and the driver cannot create it.
	ErrBucketNotFound = errors.New("storage: bucket not found")
)

// Storage is the object store encrypted backups are archived to.
type Storage interface {
	io.Closer

	// EnsureBucket creates bucket when it does not exist yet.
	EnsureBucket(ctx context.Context, bucket string) error
	// PutObject stores data and returns object metadata.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
	// GetObject retrieves data and metadata for the object.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	// DeleteObject removes the object. Deleting a missing key is not an error.
	DeleteObject(ctx context.Context, bucket, key string) error
	// ListObjects lists objects under a key prefix in ascending key order.
	ListObjects(ctx context.Context, bucket, prefix string, opts ListOptions) ([]ObjectInfo, error)
}

// PutOptions configures upload behavior.
type PutOptions struct {
	// Size is the content length.
	Size int64
	// ContentType is the MIME type for the object.
	ContentType string
	// Metadata includes custom key/value metadata.
	Metadata map[string]string
}

// ListOptions configures listing behavior.
type ListOptions struct {
	// Limit caps the number of results.
	Limit int32
}

// ObjectInfo describes object metadata.
type ObjectInfo struct {
	Bucket      string
	Key         string
	Size        int64
	ETag        string
	ContentType string
	Metadata    map[string]string
	UpdatedAt   time.Time
}
