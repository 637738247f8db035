package storage

import (
	"context"
	"errors"
	"time"

	"github.com/princekumarofficial/asset-service/internal/types"
)

// ErrNotFound is returned when no asset has the requested id.
var ErrNotFound = errors.New("asset not found")

// Storage is the metadata store for image assets. Soft-deleted assets are
// hidden from SearchAssets unless IncludeDeleted is set, but GetAsset
// always returns them.
type Storage interface {
	CreateAsset(ctx context.Context, asset *types.Asset) (int64, error)
	GetAsset(ctx context.Context, id int64) (*types.Asset, error)
	SearchAssets(ctx context.Context, params types.SearchParams) (int64, []types.Asset, error)
	SoftDeleteAsset(ctx context.Context, id int64) (*types.Asset, error)
	HardDeleteAsset(ctx context.Context, id int64) error
	DistinctActions(ctx context.Context) ([]string, error)
	DeletedBefore(ctx context.Context, cutoff time.Time) ([]types.Asset, error)
	Close() error
}
