package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSAdapter implements Storage using Google Cloud Storage.
type GCSAdapter struct {
	client    *gcs.Client
	projectID string
}

// GCSOptions configures GCS client initialization.
type GCSOptions struct {
	// Client provides an existing GCS client; when nil one is built from
	// application default credentials.
	Client *gcs.Client
	// ProjectID owns buckets created by EnsureBucket. Without it a missing
	// bucket is reported as ErrBucketNotFound.
	ProjectID string
}

// NewGCS constructs a GCS adapter.
func NewGCS(ctx context.Context, opts GCSOptions) (*GCSAdapter, error) {
	client := opts.Client
	if client == nil {
		created, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		client = created
	}
	return &GCSAdapter{client: client, projectID: opts.ProjectID}, nil
}

// EnsureBucket creates the bucket under the configured project.
func (g *GCSAdapter) EnsureBucket(ctx context.Context, bucket string) error {
	handle := g.client.Bucket(bucket)
	_, err := handle.Attrs(ctx)
	if !errors.Is(err, gcs.ErrBucketNotExist) {
		return err
	}
	if g.projectID == "" {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, bucket)
	}
	return handle.Create(ctx, g.projectID, nil)
}

// PutObject stores data in GCS and returns metadata.
func (g *GCSAdapter) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	obj := g.client.Bucket(bucket).Object(key)
	writer := obj.NewWriter(ctx)
	if opts.ContentType != "" {
		writer.ContentType = opts.ContentType
	}
	if len(opts.Metadata) > 0 {
		writer.Metadata = opts.Metadata
	}
	_, err := io.Copy(writer, r)
	if err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return ObjectInfo{}, closeErr
		}
		return ObjectInfo{}, err
	}
	if err := writer.Close(); err != nil {
		return ObjectInfo{}, err
	}
	attrs := writer.Attrs()
	if attrs == nil {
		return ObjectInfo{
			Bucket:      bucket,
			Key:         key,
			Size:        opts.Size,
			ContentType: opts.ContentType,
			Metadata:    opts.Metadata,
		}, nil
	}
	return gcsAttrsToInfo(attrs), nil
}

// GetObject retrieves data and metadata from GCS.
func (g *GCSAdapter) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	obj := g.client.Bucket(bucket).Object(key)
	reader, err := obj.NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, ObjectInfo{}, ErrObjectNotFound
	}
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		if closeErr := reader.Close(); closeErr != nil {
			return nil, ObjectInfo{}, closeErr
		}
		return nil, ObjectInfo{}, err
	}
	return reader, gcsAttrsToInfo(attrs), nil
}

// DeleteObject removes an object from GCS.
func (g *GCSAdapter) DeleteObject(ctx context.Context, bucket, key string) error {
	err := g.client.Bucket(bucket).Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

// ListObjects lists objects from a GCS bucket.
func (g *GCSAdapter) ListObjects(ctx context.Context, bucket, prefix string, opts ListOptions) ([]ObjectInfo, error) {
	query := &gcs.Query{Prefix: prefix}
	it := g.client.Bucket(bucket).Objects(ctx, query)
	if opts.Limit > 0 {
		it.PageInfo().MaxSize = int(opts.Limit)
	}
	objects := make([]ObjectInfo, 0)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		objects = append(objects, gcsAttrsToInfo(attrs))
		if opts.Limit > 0 && int32(len(objects)) >= opts.Limit {
			break
		}
	}
	return objects, nil
}

// Close closes the GCS client.
func (g *GCSAdapter) Close() error {
	return g.client.Close()
}

func gcsAttrsToInfo(attrs *gcs.ObjectAttrs) ObjectInfo {
	if attrs == nil {
		return ObjectInfo{}
	}
	return ObjectInfo{
		Bucket:      attrs.Bucket,
		Key:         attrs.Name,
		Size:        attrs.Size,
		ETag:        attrs.Etag,
		ContentType: attrs.ContentType,
		Metadata:    attrs.Metadata,
		UpdatedAt:   attrs.Updated,
	}
}
