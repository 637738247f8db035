package assets

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/princekumarofficial/asset-service/internal/services/media"
	"github.com/princekumarofficial/asset-service/internal/storage"
	"github.com/princekumarofficial/asset-service/internal/storage/sqlite"
	"github.com/princekumarofficial/asset-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	storage.Storage
}

func (failingStore) CreateAsset(context.Context, *types.Asset) (int64, error) {
	return 0, errors.New("database is locked")
}

type remoteBackend struct {
	media.Backend
	deleted []string
}

func (r *remoteBackend) Remote() bool { return true }

func (r *remoteBackend) Put(_ context.Context, _ []byte, filename, _ string) (string, error) {
	return "https://bucket.s3.example.com/nsfw_assets/" + filename, nil
}

func (r *remoteBackend) Delete(_ context.Context, locator string) error {
	r.deleted = append(r.deleted, locator)
	return nil
}

func newService(t *testing.T) (*Service, storage.Storage, string) {
	t.Helper()

	store, err := sqlite.NewSQLite(filepath.Join(t.TempDir(), "assets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	dir := filepath.Join(t.TempDir(), "uploads")
	local, err := media.NewLocal(dir)
	require.NoError(t, err)

	return NewService(store, local, nil), store, dir
}

func TestCreateLocalAsset(t *testing.T) {
	svc, _, dir := newService(t)
	ctx := context.Background()

	asset, err := svc.Create(ctx, []byte("img"), "nested/cat.png", types.Metadata{Angle1: types.String("above")})
	require.NoError(t, err)

	require.NotNil(t, asset.LocalFilePath)
	assert.Nil(t, asset.S3URL)
	assert.Equal(t, dir, filepath.Dir(*asset.LocalFilePath))
	assert.Equal(t, "cat.png", types.Value(asset.OriginalFilename))

	rc, err := svc.Open(ctx, asset)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "img", string(data))

	_, err = svc.Create(ctx, nil, "empty.png", types.Metadata{})
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestCreateRemoteAssetStoresURL(t *testing.T) {
	store, err := sqlite.NewSQLite(filepath.Join(t.TempDir(), "assets.db"))
	require.NoError(t, err)
	defer store.Close()

	backend := &remoteBackend{}
	svc := NewService(store, backend, nil)

	asset, err := svc.Create(context.Background(), []byte("img"), "dog.png", types.Metadata{})
	require.NoError(t, err)
	assert.Nil(t, asset.LocalFilePath)
	assert.Equal(t, "https://bucket.s3.example.com/nsfw_assets/dog.png", types.Value(asset.S3URL))

	require.NoError(t, svc.HardDelete(context.Background(), asset.ID))
	assert.Equal(t, []string{"https://bucket.s3.example.com/nsfw_assets/dog.png"}, backend.deleted)
}

func TestCreateRemovesObjectWhenRecordFails(t *testing.T) {
	_, store, dir := newService(t)
	local, err := media.NewLocal(dir)
	require.NoError(t, err)
	svc := NewService(failingStore{store}, local, nil)

	_, err = svc.Create(context.Background(), []byte("img"), "cat.png", types.Metadata{})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHardDeleteRemovesFileAndRecord(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	asset, err := svc.Create(ctx, []byte("img"), "cat.png", types.Metadata{})
	require.NoError(t, err)

	require.NoError(t, svc.HardDelete(ctx, asset.ID))

	_, err = os.Stat(*asset.LocalFilePath)
	assert.True(t, os.IsNotExist(err))
	_, err = svc.Get(ctx, asset.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, svc.HardDelete(ctx, asset.ID), storage.ErrNotFound)
}

func TestPurgeDeleted(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	keep, err := svc.Create(ctx, []byte("a"), "a.png", types.Metadata{})
	require.NoError(t, err)
	drop, err := svc.Create(ctx, []byte("b"), "b.png", types.Metadata{})
	require.NoError(t, err)

	_, err = svc.SoftDelete(ctx, drop.ID)
	require.NoError(t, err)

	n, err := svc.PurgeDeleted(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.Get(ctx, drop.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = svc.Get(ctx, keep.ID)
	assert.NoError(t, err)
}
