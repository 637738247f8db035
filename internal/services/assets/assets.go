package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/princekumarofficial/asset-service/internal/metrics"
	"github.com/princekumarofficial/asset-service/internal/services/media"
	"github.com/princekumarofficial/asset-service/internal/storage"
	"github.com/princekumarofficial/asset-service/internal/types"
)

// ErrEmptyFile is returned for uploads without content.
var ErrEmptyFile = errors.New("uploaded file is empty")

// Service ties the object backend to the metadata store: it owns the rule
// that a record exists only for bytes that were stored, and that a hard
// delete removes both.
type Service struct {
	storage storage.Storage
	backend media.Backend
	metrics *metrics.Collector
}

func NewService(store storage.Storage, backend media.Backend, collector *metrics.Collector) *Service {
	return &Service{
		storage: store,
		backend: backend,
		metrics: collector,
	}
}

func (s *Service) backendName() string {
	if s.backend.Remote() {
		return "s3"
	}
	return "local"
}

// Create stores data in the backend and inserts the matching record. If the
// insert fails the stored object is removed again.
func (s *Service) Create(ctx context.Context, data []byte, filename string, meta types.Metadata) (*types.Asset, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	filename = filepath.Base(filepath.ToSlash(filename))

	start := time.Now()
	locator, err := s.backend.Put(ctx, data, filename, media.ContentType(filename))
	if err != nil {
		s.metrics.RecordUpload(s.backendName(), time.Since(start), len(data), err)
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	asset := &types.Asset{
		Metadata:         meta,
		OriginalFilename: types.String(filename),
	}
	if s.backend.Remote() {
		asset.S3URL = &locator
	} else {
		asset.LocalFilePath = &locator
	}

	if _, err := s.storage.CreateAsset(ctx, asset); err != nil {
		if delErr := s.backend.Delete(context.WithoutCancel(ctx), locator); delErr != nil {
			slog.Error("Failed to remove orphaned object",
				slog.String("locator", locator),
				slog.String("error", delErr.Error()))
		}
		s.metrics.RecordUpload(s.backendName(), time.Since(start), len(data), err)
		return nil, fmt.Errorf("failed to save asset record: %w", err)
	}

	s.metrics.RecordUpload(s.backendName(), time.Since(start), len(data), nil)
	slog.Info("Asset created",
		slog.Int64("asset_id", asset.ID),
		slog.String("backend", s.backendName()),
		slog.String("filename", filename))

	return asset, nil
}

// Upload makes the service usable as an in-process ingestion target.
func (s *Service) Upload(ctx context.Context, data []byte, filename string, meta types.Metadata) (int64, error) {
	asset, err := s.Create(ctx, data, filename, meta)
	if err != nil {
		return 0, err
	}
	return asset.ID, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*types.Asset, error) {
	return s.storage.GetAsset(ctx, id)
}

func (s *Service) Search(ctx context.Context, params types.SearchParams) (int64, []types.Asset, error) {
	return s.storage.SearchAssets(ctx, params)
}

func (s *Service) SoftDelete(ctx context.Context, id int64) (*types.Asset, error) {
	return s.storage.SoftDeleteAsset(ctx, id)
}

// HardDelete removes the stored object and then the record. A failure to
// remove the object is logged and does not keep the record alive.
func (s *Service) HardDelete(ctx context.Context, id int64) error {
	asset, err := s.storage.GetAsset(ctx, id)
	if err != nil {
		return err
	}

	if locator := asset.Locator(); locator != "" {
		if err := s.backend.Delete(ctx, locator); err != nil {
			slog.Error("Failed to delete stored object",
				slog.Int64("asset_id", id),
				slog.String("locator", locator),
				slog.String("error", err.Error()))
		}
	}

	return s.storage.HardDeleteAsset(ctx, id)
}

func (s *Service) Actions(ctx context.Context) ([]string, error) {
	return s.storage.DistinctActions(ctx)
}

// Open streams the bytes of a locally stored asset.
func (s *Service) Open(ctx context.Context, asset *types.Asset) (io.ReadCloser, error) {
	return s.backend.Open(ctx, asset.Locator())
}

// PurgeDeleted hard-deletes every asset soft-deleted before cutoff and
// reports how many were removed.
func (s *Service) PurgeDeleted(ctx context.Context, cutoff time.Time) (int, error) {
	expired, err := s.storage.DeletedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, asset := range expired {
		if err := ctx.Err(); err != nil {
			return purged, err
		}
		if err := s.HardDelete(ctx, asset.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return purged, fmt.Errorf("failed to purge asset %d: %w", asset.ID, err)
		}
		purged++
	}

	return purged, nil
}
