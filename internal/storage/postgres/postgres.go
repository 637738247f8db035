package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/princekumarofficial/asset-service/internal/config"
	"github.com/princekumarofficial/asset-service/internal/storage"
	"github.com/princekumarofficial/asset-service/internal/types"
)

type Postgres struct {
	Db *sql.DB
}

const assetColumns = `id, created_at, deleted_at, angle_1, angle_2, action_1, action_2, action_3,
	prompt, original_filename, s3_url, local_file_path`

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	pg := cfg.Database.PGSQL
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pg.Host, pg.Port, pg.User, pg.Password, pg.DBName, pg.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("Connected to Postgres database", slog.String("host", pg.Host), slog.String("dbname", pg.DBName))

	p := &Postgres{Db: db}
	if err := p.CreateTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return p, nil
}

func (p *Postgres) CreateTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS image_assets (
			id SERIAL PRIMARY KEY,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP,
			angle_1 VARCHAR(255),
			angle_2 VARCHAR(255),
			action_1 VARCHAR(255),
			action_2 VARCHAR(255),
			action_3 VARCHAR(255),
			prompt TEXT,
			s3_url VARCHAR(1024),
			local_file_path VARCHAR(1024),
			original_filename VARCHAR(512)
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_image_assets_angle_1 ON image_assets (angle_1);`,
		`CREATE INDEX IF NOT EXISTS idx_image_assets_angle_2 ON image_assets (angle_2);`,
		`CREATE INDEX IF NOT EXISTS idx_image_assets_action_1 ON image_assets (action_1);`,
		`CREATE INDEX IF NOT EXISTS idx_image_assets_action_2 ON image_assets (action_2);`,
		`CREATE INDEX IF NOT EXISTS idx_image_assets_action_3 ON image_assets (action_3);`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

func (p *Postgres) Close() error {
	return p.Db.Close()
}

func (p *Postgres) CreateAsset(ctx context.Context, asset *types.Asset) (int64, error) {
	query := `
	INSERT INTO image_assets (angle_1, angle_2, action_1, action_2, action_3, prompt,
		original_filename, s3_url, local_file_path)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, created_at
	`

	err := p.Db.QueryRowContext(ctx, query,
		asset.Angle1, asset.Angle2, asset.Action1, asset.Action2, asset.Action3, asset.Prompt,
		asset.OriginalFilename, asset.S3URL, asset.LocalFilePath,
	).Scan(&asset.ID, &asset.CreatedAt)
	if err != nil {
		return 0, err
	}

	return asset.ID, nil
}

func (p *Postgres) GetAsset(ctx context.Context, id int64) (*types.Asset, error) {
	row := p.Db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM image_assets WHERE id = $1`, id)

	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return asset, nil
}

func (p *Postgres) SearchAssets(ctx context.Context, params types.SearchParams) (int64, []types.Asset, error) {
	var (
		conds []string
		args  []interface{}
	)

	add := func(cond string, value interface{}) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if !params.IncludeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}
	for column, value := range map[string]*string{
		"angle_1":  params.Angle1,
		"angle_2":  params.Angle2,
		"action_1": params.Action1,
		"action_2": params.Action2,
		"action_3": params.Action3,
	} {
		if value != nil {
			add(column+" = $%d", *value)
		}
	}
	if params.Prompt != nil {
		add("prompt ILIKE $%d", "%"+*params.Prompt+"%")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := p.Db.QueryRowContext(ctx, `SELECT COUNT(*) FROM image_assets`+where, args...).Scan(&total); err != nil {
		return 0, nil, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`SELECT %s FROM image_assets%s ORDER BY id LIMIT $%d OFFSET $%d`,
		assetColumns, where, len(args)-1, len(args))

	rows, err := p.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	assets := []types.Asset{}
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return 0, nil, err
		}
		assets = append(assets, *asset)
	}

	return total, assets, rows.Err()
}

func (p *Postgres) SoftDeleteAsset(ctx context.Context, id int64) (*types.Asset, error) {
	row := p.Db.QueryRowContext(ctx, `
	UPDATE image_assets SET deleted_at = COALESCE(deleted_at, NOW() AT TIME ZONE 'UTC')
	WHERE id = $1
	RETURNING `+assetColumns, id)

	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return asset, nil
}

func (p *Postgres) HardDeleteAsset(ctx context.Context, id int64) error {
	res, err := p.Db.ExecContext(ctx, `DELETE FROM image_assets WHERE id = $1`, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (p *Postgres) DistinctActions(ctx context.Context) ([]string, error) {
	rows, err := p.Db.QueryContext(ctx, `
	SELECT DISTINCT action_1 FROM image_assets
	WHERE action_1 IS NOT NULL AND action_1 <> ''
	ORDER BY action_1
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actions := []string{}
	for rows.Next() {
		var action string
		if err := rows.Scan(&action); err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}

	return actions, rows.Err()
}

func (p *Postgres) DeletedBefore(ctx context.Context, cutoff time.Time) ([]types.Asset, error) {
	rows, err := p.Db.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM image_assets WHERE deleted_at IS NOT NULL AND deleted_at < $1 ORDER BY id`,
		cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []types.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}

	return assets, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAsset(s scanner) (*types.Asset, error) {
	var (
		asset     types.Asset
		deletedAt pq.NullTime
		fields    [9]sql.NullString
	)

	err := s.Scan(&asset.ID, &asset.CreatedAt, &deletedAt,
		&fields[0], &fields[1], &fields[2], &fields[3], &fields[4],
		&fields[5], &fields[6], &fields[7], &fields[8])
	if err != nil {
		return nil, err
	}

	if deletedAt.Valid {
		t := deletedAt.Time
		asset.DeletedAt = &t
	}

	targets := []**string{
		&asset.Angle1, &asset.Angle2, &asset.Action1, &asset.Action2, &asset.Action3,
		&asset.Prompt, &asset.OriginalFilename, &asset.S3URL, &asset.LocalFilePath,
	}
	for i, f := range fields {
		if f.Valid {
			v := f.String
			*targets[i] = &v
		}
	}

	return &asset, nil
}

var _ storage.Storage = (*Postgres)(nil)
