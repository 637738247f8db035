package backend

import (
	"fmt"

	"github.com/princekumarofficial/asset-service/internal/config"
	"github.com/princekumarofficial/asset-service/internal/storage"
	"github.com/princekumarofficial/asset-service/internal/storage/postgres"
	"github.com/princekumarofficial/asset-service/internal/storage/sqlite"
)

// Open returns the metadata store selected by cfg.Database.Driver.
func Open(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return postgres.NewPostgres(cfg)
	case "sqlite":
		return sqlite.NewSQLite(cfg.Database.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
