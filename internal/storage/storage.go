// Package storage is the object storage collaborator: named buckets holding
// objects with key-value metadata attached.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"net/textproto"
	"unicode/utf8"
)

var (
	// ErrNotFound indicates the object key does not exist in the bucket
	ErrNotFound = errors.New("object not found")
)

// Object is a fetched object with its body
type Object struct {
	Key         string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo is an object's attributes without the body
type ObjectInfo struct {
	Key         string
	ContentType string
	Size        int64
	Metadata    map[string]string
}

// ObjectStore is implemented by S3Store and memstore.Store.
// Metadata passed in and returned is plain UTF-8 text keyed by canonical
// header-style names (e.g. "Original-Photo"); encoding is the store's concern.
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) (*Object, error)
	Put(ctx context.Context, bucket, key string, data []byte, contentType string, metadata map[string]string) error
	Head(ctx context.Context, bucket, key string) (*ObjectInfo, error)
	List(ctx context.Context, bucket string) ([]string, error)
	// CopyWithMetadata rewrites the object onto itself with metadata replaced
	CopyWithMetadata(ctx context.Context, bucket, key, contentType string, metadata map[string]string) error
}

// EncodeMetadata base64-encodes every value, since object stores only
// guarantee ASCII-safe metadata headers
func EncodeMetadata(metadata map[string]string) map[string]string {
	encoded := make(map[string]string, len(metadata))
	for k, v := range metadata {
		encoded[k] = base64.StdEncoding.EncodeToString([]byte(v))
	}
	return encoded
}

// DecodeMetadata reverses EncodeMetadata and canonicalises keys, which S3
// returns lowercased. Values that are not base64, or that do not decode to
// UTF-8 text, were not written by this service and are kept as they are.
// A foreign raw value that happens to decode to valid UTF-8 is still misread.
func DecodeMetadata(metadata map[string]string) map[string]string {
	decoded := make(map[string]string, len(metadata))
	for k, v := range metadata {
		key := textproto.CanonicalMIMEHeaderKey(k)
		raw, err := base64.StdEncoding.DecodeString(v)
		if err != nil || !utf8.Valid(raw) {
			decoded[key] = v
			continue
		}
		decoded[key] = string(raw)
	}
	return decoded
}

// IsNotFound reports whether err means the object does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
