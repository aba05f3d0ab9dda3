package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/domain"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/storage"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/storage/memstore"
)

const bucket = "faces"

func seed(t *testing.T, faces map[string]map[string]string) *memstore.Store {
	t.Helper()
	store := memstore.New()
	for key, meta := range faces {
		require.NoError(t, store.Put(context.Background(), bucket, key, []byte("jpeg"), "image/jpeg", meta))
	}
	return store
}

func TestIndex_FindUnnamedFace(t *testing.T) {
	tests := []struct {
		name     string
		faces    map[string]map[string]string
		expected string
	}{
		{
			name:     "empty bucket",
			faces:    nil,
			expected: "",
		},
		{
			name: "all named",
			faces: map[string]map[string]string{
				"a.jpg": {domain.MetaOriginalPhoto: "p1.jpg", domain.MetaName: "Alice"},
				"b.jpg": {domain.MetaOriginalPhoto: "p1.jpg", domain.MetaName: "Bob"},
			},
			expected: "",
		},
		{
			name: "first unnamed in listing order",
			faces: map[string]map[string]string{
				"a.jpg": {domain.MetaOriginalPhoto: "p1.jpg", domain.MetaName: "Alice"},
				"b.jpg": {domain.MetaOriginalPhoto: "p1.jpg"},
				"c.jpg": {domain.MetaOriginalPhoto: "p2.jpg"},
			},
			expected: "b.jpg",
		},
		{
			name: "unsent face preferred over one awaiting its name",
			faces: map[string]map[string]string{
				"a.jpg": {domain.MetaOriginalPhoto: "p1.jpg", domain.MetaTgFileUniqueID: "U1"},
				"b.jpg": {domain.MetaOriginalPhoto: "p1.jpg"},
			},
			expected: "b.jpg",
		},
		{
			name: "awaiting face returned when none is unsent",
			faces: map[string]map[string]string{
				"a.jpg": {domain.MetaOriginalPhoto: "p1.jpg", domain.MetaName: "Alice"},
				"b.jpg": {domain.MetaOriginalPhoto: "p1.jpg", domain.MetaTgFileUniqueID: "U1"},
				"c.jpg": {domain.MetaOriginalPhoto: "p2.jpg", domain.MetaTgFileUniqueID: "U2"},
			},
			expected: "b.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := New(seed(t, tt.faces), bucket)

			face, err := idx.FindUnnamedFace(context.Background())
			require.NoError(t, err)

			if tt.expected == "" {
				assert.Nil(t, face)
				return
			}
			require.NotNil(t, face)
			assert.Equal(t, tt.expected, face.Key)
			assert.Empty(t, face.Name())
		})
	}
}

func TestIndex_FindFaceByUniqueID(t *testing.T) {
	idx := New(seed(t, map[string]map[string]string{
		"a.jpg": {domain.MetaOriginalPhoto: "p1.jpg", domain.MetaTgFileUniqueID: "U1"},
		"b.jpg": {domain.MetaOriginalPhoto: "p2.jpg", domain.MetaTgFileUniqueID: "U2"},
		"c.jpg": {domain.MetaOriginalPhoto: "p3.jpg"},
	}), bucket)
	ctx := context.Background()

	face, err := idx.FindFaceByUniqueID(ctx, "U2")
	require.NoError(t, err)
	require.NotNil(t, face)
	assert.Equal(t, "b.jpg", face.Key)
	assert.Equal(t, "p2.jpg", face.OriginalPhoto())

	face, err = idx.FindFaceByUniqueID(ctx, "U9")
	require.NoError(t, err)
	assert.Nil(t, face)

	face, err = idx.FindFaceByUniqueID(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, face)
}

func TestIndex_CollectOriginalsByName(t *testing.T) {
	idx := New(seed(t, map[string]map[string]string{
		"a.jpg": {domain.MetaOriginalPhoto: "p1.jpg", domain.MetaName: "Alice"},
		"b.jpg": {domain.MetaOriginalPhoto: "p1.jpg", domain.MetaName: "Alice"},
		"c.jpg": {domain.MetaOriginalPhoto: "p2.jpg", domain.MetaName: "Bob"},
		"d.jpg": {domain.MetaOriginalPhoto: "p3.jpg", domain.MetaName: "Alice"},
		"e.jpg": {domain.MetaOriginalPhoto: "p4.jpg", domain.MetaName: "alice"},
		"f.jpg": {domain.MetaOriginalPhoto: "p5.jpg"},
	}), bucket)

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{name: "one entry per face in listing order", query: "Alice", expected: []string{"p1.jpg", "p1.jpg", "p3.jpg"}},
		{name: "case sensitive", query: "alice", expected: []string{"p4.jpg"}},
		{name: "single match", query: "Bob", expected: []string{"p2.jpg"}},
		{name: "no match", query: "Carol", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			originals, err := idx.CollectOriginalsByName(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, originals)
		})
	}
}

func TestIndex_MergeMetadata(t *testing.T) {
	store := seed(t, map[string]map[string]string{
		"a.jpg": {domain.MetaOriginalPhoto: "p1.jpg"},
	})
	idx := New(store, bucket)
	ctx := context.Background()

	require.NoError(t, idx.MergeMetadata(ctx, "a.jpg", map[string]string{domain.MetaTgFileUniqueID: "U1"}))
	require.NoError(t, idx.MergeMetadata(ctx, "a.jpg", map[string]string{domain.MetaName: "Zoë"}))

	info, err := store.Head(ctx, bucket, "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		domain.MetaOriginalPhoto:  "p1.jpg",
		domain.MetaTgFileUniqueID: "U1",
		domain.MetaName:           "Zoë",
	}, info.Metadata)
	assert.Equal(t, "image/jpeg", info.ContentType)

	obj, err := store.Get(ctx, bucket, "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), obj.Data)
}

func TestIndex_MergeMetadataOverwritesName(t *testing.T) {
	store := seed(t, map[string]map[string]string{
		"a.jpg": {domain.MetaOriginalPhoto: "p1.jpg", domain.MetaName: "Alice"},
	})
	idx := New(store, bucket)
	ctx := context.Background()

	require.NoError(t, idx.MergeMetadata(ctx, "a.jpg", map[string]string{domain.MetaName: "Alicia"}))

	originals, err := idx.CollectOriginalsByName(ctx, "Alicia")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1.jpg"}, originals)
}

func TestIndex_MergeMetadataMissing(t *testing.T) {
	idx := New(memstore.New(), bucket)
	err := idx.MergeMetadata(context.Background(), "missing.jpg", map[string]string{domain.MetaName: "X"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// failingStore fails List or Head
type failingStore struct {
	*memstore.Store
	listErr error
	headErr error
}

func (f *failingStore) List(ctx context.Context, b string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Store.List(ctx, b)
}

func (f *failingStore) Head(ctx context.Context, b, key string) (*storage.ObjectInfo, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return f.Store.Head(ctx, b, key)
}

func TestIndex_StorageErrorsPropagate(t *testing.T) {
	boom := errors.New("storage down")
	base := seed(t, map[string]map[string]string{"a.jpg": {domain.MetaOriginalPhoto: "p1.jpg"}})

	for _, store := range []*failingStore{
		{Store: base, listErr: boom},
		{Store: base, headErr: boom},
	} {
		idx := New(store, bucket)

		_, err := idx.FindUnnamedFace(context.Background())
		assert.ErrorIs(t, err, boom)

		_, err = idx.CollectOriginalsByName(context.Background(), "Alice")
		assert.ErrorIs(t, err, boom)
	}
}

func TestIndex_SkipsObjectsVanishedDuringScan(t *testing.T) {
	store := &failingStore{
		Store:   seed(t, map[string]map[string]string{"a.jpg": {domain.MetaOriginalPhoto: "p1.jpg"}}),
		headErr: storage.ErrNotFound,
	}
	face, err := New(store, bucket).FindUnnamedFace(context.Background())
	require.NoError(t, err)
	assert.Nil(t, face)
}
