// Package index answers questions about faces by scanning the metadata of
// every object in the faces bucket. There is no secondary index: each query
// is one listing plus one Head per object.
package index

import (
	"context"
	"fmt"
	"maps"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/domain"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/storage"
)

// Index queries and updates face metadata in a single bucket
type Index struct {
	store  storage.ObjectStore
	bucket string
}

func New(store storage.ObjectStore, bucket string) *Index {
	return &Index{store: store, bucket: bucket}
}

// Bucket returns the bucket the index scans
func (i *Index) Bucket() string {
	return i.bucket
}

// scan walks the bucket in listing order until match returns true.
// Objects deleted between List and Head are skipped.
func (i *Index) scan(ctx context.Context, match func(domain.FaceObject) bool) error {
	keys, err := i.store.List(ctx, i.bucket)
	if err != nil {
		return fmt.Errorf("list faces: %w", err)
	}

	for _, key := range keys {
		info, err := i.store.Head(ctx, i.bucket, key)
		if err != nil {
			if storage.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("head face %s: %w", key, err)
		}
		if match(domain.FaceObject{Key: key, Metadata: info.Metadata}) {
			return nil
		}
	}
	return nil
}

// FindUnnamedFace returns a face carrying no name, nil when every face is
// named. A face never sent to a chat wins over one already awaiting its name;
// the first awaiting face is only returned when no unsent face is left.
func (i *Index) FindUnnamedFace(ctx context.Context) (*domain.FaceObject, error) {
	var unsent, awaiting *domain.FaceObject
	err := i.scan(ctx, func(face domain.FaceObject) bool {
		switch face.State() {
		case domain.StateUnsent:
			unsent = &face
			return true
		case domain.StateAwaitingName:
			if awaiting == nil {
				awaiting = &face
			}
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	if unsent != nil {
		return unsent, nil
	}
	return awaiting, nil
}

// FindFaceByUniqueID returns the face a chat photo was sent for, nil if none
func (i *Index) FindFaceByUniqueID(ctx context.Context, uniqueID string) (*domain.FaceObject, error) {
	if uniqueID == "" {
		return nil, nil
	}

	var found *domain.FaceObject
	err := i.scan(ctx, func(face domain.FaceObject) bool {
		if face.UniqueID() != uniqueID {
			return false
		}
		found = &face
		return true
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// CollectOriginalsByName returns the original photo of every face named
// exactly name, in listing order. A photo with two such faces appears twice.
func (i *Index) CollectOriginalsByName(ctx context.Context, name string) ([]string, error) {
	var originals []string
	err := i.scan(ctx, func(face domain.FaceObject) bool {
		if face.Name() == name && face.OriginalPhoto() != "" {
			originals = append(originals, face.OriginalPhoto())
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return originals, nil
}

// MergeMetadata overlays updates onto the face's existing metadata and
// rewrites the object. Two concurrent merges race and the last write wins.
func (i *Index) MergeMetadata(ctx context.Context, key string, updates map[string]string) error {
	info, err := i.store.Head(ctx, i.bucket, key)
	if err != nil {
		return fmt.Errorf("head face %s: %w", key, err)
	}

	merged := maps.Clone(info.Metadata)
	if merged == nil {
		merged = make(map[string]string, len(updates))
	}
	maps.Copy(merged, updates)

	if err := i.store.CopyWithMetadata(ctx, i.bucket, key, info.ContentType, merged); err != nil {
		return fmt.Errorf("merge metadata %s: %w", key, err)
	}
	return nil
}
