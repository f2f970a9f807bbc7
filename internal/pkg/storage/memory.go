package storage

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // etag only
	"encoding/hex"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// Memory implements Storage in process memory.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time
}

type memoryObject struct {
	data []byte
	info ObjectInfo
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memoryObject), now: time.Now}
}

func memoryKey(bucket, key string) string {
	return bucket + "/" + key
}

// EnsureBucket is a no-op; buckets exist implicitly.
func (m *Memory) EnsureBucket(context.Context, string) error {
	return nil
}

// PutObject stores a copy of r.
func (m *Memory) PutObject(_ context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ObjectInfo{}, err
	}

	sum := md5.Sum(data) //nolint:gosec // etag only
	info := ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        int64(len(data)),
		ETag:        hex.EncodeToString(sum[:]),
		ContentType: opts.ContentType,
		Metadata:    maps.Clone(opts.Metadata),
		UpdatedAt:   m.now(),
	}

	m.mu.Lock()
	m.objects[memoryKey(bucket, key)] = memoryObject{data: data, info: info}
	m.mu.Unlock()

	return info, nil
}

// GetObject returns a reader over the stored bytes.
func (m *Memory) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	m.mu.RLock()
	obj, ok := m.objects[memoryKey(bucket, key)]
	m.mu.RUnlock()
	if !ok {
		return nil, ObjectInfo{}, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.info, nil
}

// DeleteObject removes the object; missing keys are not an error.
func (m *Memory) DeleteObject(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	delete(m.objects, memoryKey(bucket, key))
	m.mu.Unlock()
	return nil
}

// ListObjects returns objects under prefix ordered by key.
func (m *Memory) ListObjects(_ context.Context, bucket, prefix string, opts ListOptions) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := slices.Sorted(maps.Keys(m.objects))
	objects := make([]ObjectInfo, 0)
	for _, k := range keys {
		obj := m.objects[k]
		if obj.info.Bucket != bucket || !strings.HasPrefix(obj.info.Key, prefix) {
			continue
		}
		objects = append(objects, obj.info)
		if opts.Limit > 0 && int32(len(objects)) >= opts.Limit {
			break
		}
	}
	return objects, nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
