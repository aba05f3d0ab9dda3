// Package memstore is an in-memory storage.ObjectStore with S3-like metadata
// handling, used by pipeline and conversation tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/storage"
)

type object struct {
	data        []byte
	contentType string
	// metadata is kept the way S3 keeps it: lowercased keys, encoded values
	metadata map[string]string
}

// Store keeps buckets in memory. Buckets are created on first write.
type Store struct {
	mu      sync.RWMutex
	buckets map[string]map[string]object
}

var _ storage.ObjectStore = (*Store)(nil)

func New() *Store {
	return &Store{buckets: make(map[string]map[string]object)}
}

func toWire(metadata map[string]string) map[string]string {
	wire := make(map[string]string, len(metadata))
	for k, v := range storage.EncodeMetadata(metadata) {
		wire[strings.ToLower(k)] = v
	}
	return wire
}

func (s *Store) lookup(bucket, key string) (object, error) {
	obj, ok := s.buckets[bucket][key]
	if !ok {
		return object{}, fmt.Errorf("%s/%s: %w", bucket, key, storage.ErrNotFound)
	}
	return obj, nil
}

func (s *Store) Get(ctx context.Context, bucket, key string) (*storage.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, err := s.lookup(bucket, key)
	if err != nil {
		return nil, err
	}

	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return &storage.Object{
		Key:         key,
		Data:        data,
		ContentType: obj.contentType,
		Metadata:    storage.DecodeMetadata(obj.metadata),
	}, nil
}

func (s *Store) Put(ctx context.Context, bucket, key string, data []byte, contentType string, metadata map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buckets[bucket] == nil {
		s.buckets[bucket] = make(map[string]object)
	}
	body := make([]byte, len(data))
	copy(body, data)
	s.buckets[bucket][key] = object{data: body, contentType: contentType, metadata: toWire(metadata)}
	return nil
}

func (s *Store) Head(ctx context.Context, bucket, key string) (*storage.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, err := s.lookup(bucket, key)
	if err != nil {
		return nil, err
	}
	return &storage.ObjectInfo{
		Key:         key,
		ContentType: obj.contentType,
		Size:        int64(len(obj.data)),
		Metadata:    storage.DecodeMetadata(obj.metadata),
	}, nil
}

// List returns keys in lexicographic order, like S3 does
func (s *Store) List(ctx context.Context, bucket string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.buckets[bucket]))
	for k := range s.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) CopyWithMetadata(ctx context.Context, bucket, key, contentType string, metadata map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	obj, err := s.lookup(bucket, key)
	if err != nil {
		return err
	}
	obj.metadata = toWire(metadata)
	if contentType != "" {
		obj.contentType = contentType
	}
	s.buckets[bucket][key] = obj
	return nil
}

// Len reports how many objects a bucket holds
func (s *Store) Len(bucket string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets[bucket])
}
