package bot

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/storage"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/telegram"
)

// PhotoSource turns object keys into something the transport can send
type PhotoSource interface {
	Face(ctx context.Context, key string) (telegram.InputPhoto, error)
	Original(ctx context.Context, key string) (telegram.InputPhoto, error)
}

// StorePhotoSource links to the image routes when a public base URL is known,
// otherwise it reads the bytes and the transport uploads them
type StorePhotoSource struct {
	store         storage.ObjectStore
	photoBucket   string
	facesBucket   string
	publicBaseURL string
}

var _ PhotoSource = (*StorePhotoSource)(nil)

func NewStorePhotoSource(store storage.ObjectStore, photoBucket, facesBucket, publicBaseURL string) *StorePhotoSource {
	return &StorePhotoSource{
		store:         store,
		photoBucket:   photoBucket,
		facesBucket:   facesBucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *StorePhotoSource) Face(ctx context.Context, key string) (telegram.InputPhoto, error) {
	return s.photo(ctx, "faces", s.facesBucket, key)
}

func (s *StorePhotoSource) Original(ctx context.Context, key string) (telegram.InputPhoto, error) {
	return s.photo(ctx, "originals", s.photoBucket, key)
}

func (s *StorePhotoSource) photo(ctx context.Context, route, bucket, key string) (telegram.InputPhoto, error) {
	if s.publicBaseURL != "" {
		return telegram.InputPhoto{URL: s.publicBaseURL + "/" + route + "/" + url.PathEscape(key)}, nil
	}

	obj, err := s.store.Get(ctx, bucket, key)
	if err != nil {
		return telegram.InputPhoto{}, fmt.Errorf("load %s %s: %w", route, key, err)
	}
	return telegram.InputPhoto{Filename: path.Base(key), Data: obj.Data}, nil
}
