package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/princekumarofficial/asset-service/internal/storage"
	"github.com/princekumarofficial/asset-service/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// assetRecord maps the image_assets table. DeletedAt is a plain pointer
// rather than gorm.DeletedAt so that soft-deleted rows stay visible to
// lookups by id.
type assetRecord struct {
	ID               int64      `gorm:"primaryKey;autoIncrement"`
	CreatedAt        time.Time  `gorm:"not null"`
	DeletedAt        *time.Time `gorm:"index"`
	Angle1           *string    `gorm:"column:angle_1;size:255;index"`
	Angle2           *string    `gorm:"column:angle_2;size:255;index"`
	Action1          *string    `gorm:"column:action_1;size:255;index"`
	Action2          *string    `gorm:"column:action_2;size:255;index"`
	Action3          *string    `gorm:"column:action_3;size:255;index"`
	Prompt           *string    `gorm:"type:text"`
	S3URL            *string    `gorm:"column:s3_url;size:1024"`
	LocalFilePath    *string    `gorm:"size:1024"`
	OriginalFilename *string    `gorm:"size:512"`
}

func (assetRecord) TableName() string {
	return "image_assets"
}

type SQLite struct {
	db *gorm.DB
}

// NewSQLite opens (or creates) the database file at path and migrates the schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.AutoMigrate(&assetRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLite) CreateAsset(ctx context.Context, asset *types.Asset) (int64, error) {
	rec := fromAsset(asset)
	rec.CreatedAt = time.Now().UTC()

	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return 0, err
	}

	asset.ID = rec.ID
	asset.CreatedAt = rec.CreatedAt
	return rec.ID, nil
}

func (s *SQLite) GetAsset(ctx context.Context, id int64) (*types.Asset, error) {
	var rec assetRecord
	err := s.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return rec.toAsset(), nil
}

func (s *SQLite) SearchAssets(ctx context.Context, params types.SearchParams) (int64, []types.Asset, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if !params.IncludeDeleted {
			db = db.Where("deleted_at IS NULL")
		}
		if params.Angle1 != nil {
			db = db.Where("angle_1 = ?", *params.Angle1)
		}
		if params.Angle2 != nil {
			db = db.Where("angle_2 = ?", *params.Angle2)
		}
		if params.Action1 != nil {
			db = db.Where("action_1 = ?", *params.Action1)
		}
		if params.Action2 != nil {
			db = db.Where("action_2 = ?", *params.Action2)
		}
		if params.Action3 != nil {
			db = db.Where("action_3 = ?", *params.Action3)
		}
		if params.Prompt != nil {
			db = db.Where("prompt LIKE ?", "%"+*params.Prompt+"%")
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&assetRecord{}).Scopes(filter).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var records []assetRecord
	err := s.db.WithContext(ctx).Scopes(filter).
		Order("id").Limit(params.Limit).Offset(params.Offset).
		Find(&records).Error
	if err != nil {
		return 0, nil, err
	}

	assets := make([]types.Asset, 0, len(records))
	for i := range records {
		assets = append(assets, *records[i].toAsset())
	}

	return total, assets, nil
}

func (s *SQLite) SoftDeleteAsset(ctx context.Context, id int64) (*types.Asset, error) {
	var rec assetRecord
	err := s.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if rec.DeletedAt == nil {
		now := time.Now().UTC()
		if err := s.db.WithContext(ctx).Model(&rec).Update("deleted_at", now).Error; err != nil {
			return nil, err
		}
		rec.DeletedAt = &now
	}

	return rec.toAsset(), nil
}

func (s *SQLite) HardDeleteAsset(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&assetRecord{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *SQLite) DistinctActions(ctx context.Context) ([]string, error) {
	actions := []string{}
	err := s.db.WithContext(ctx).Model(&assetRecord{}).
		Where("action_1 IS NOT NULL AND action_1 <> ''").
		Distinct().Order("action_1").
		Pluck("action_1", &actions).Error
	if err != nil {
		return nil, err
	}
	return actions, nil
}

func (s *SQLite) DeletedBefore(ctx context.Context, cutoff time.Time) ([]types.Asset, error) {
	var records []assetRecord
	err := s.db.WithContext(ctx).
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff.UTC()).
		Order("id").Find(&records).Error
	if err != nil {
		return nil, err
	}

	assets := make([]types.Asset, 0, len(records))
	for i := range records {
		assets = append(assets, *records[i].toAsset())
	}
	return assets, nil
}

func fromAsset(a *types.Asset) assetRecord {
	return assetRecord{
		ID:               a.ID,
		CreatedAt:        a.CreatedAt,
		DeletedAt:        a.DeletedAt,
		Angle1:           a.Angle1,
		Angle2:           a.Angle2,
		Action1:          a.Action1,
		Action2:          a.Action2,
		Action3:          a.Action3,
		Prompt:           a.Prompt,
		S3URL:            a.S3URL,
		LocalFilePath:    a.LocalFilePath,
		OriginalFilename: a.OriginalFilename,
	}
}

func (r *assetRecord) toAsset() *types.Asset {
	return &types.Asset{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		DeletedAt: r.DeletedAt,
		Metadata: types.Metadata{
			Angle1:  r.Angle1,
			Angle2:  r.Angle2,
			Action1: r.Action1,
			Action2: r.Action2,
			Action3: r.Action3,
			Prompt:  r.Prompt,
		},
		OriginalFilename: r.OriginalFilename,
		S3URL:            r.S3URL,
		LocalFilePath:    r.LocalFilePath,
	}
}

var _ storage.Storage = (*SQLite)(nil)
