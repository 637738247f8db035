package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Database   Database   `yaml:"database"`
	Storage    Storage    `yaml:"storage"`
	MinIO      MinIO      `yaml:"minio"`
	Redis      Redis      `yaml:"redis"`
	Ingest     Ingest     `yaml:"ingest"`
	Retention  Retention  `yaml:"retention"`
}

type HTTPServer struct {
	Address        string `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8001"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" env-default:"52428800"`
}

// Database selects the metadata store backend. Driver is "sqlite" or
// "postgres"; SQLitePath is only read for sqlite.
type Database struct {
	Driver     string `yaml:"driver" env:"DATABASE_DRIVER" env-default:"sqlite"`
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"nsfw_assets.db"`
	PGSQL      PQSQL  `yaml:"pgsql"`
}

type PQSQL struct {
	Host     string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"PGPORT" env-default:"5432"`
	User     string `yaml:"user" env:"PGUSER" env-default:"postgres"`
	Password string `yaml:"password" env:"PGPASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env:"PGDATABASE" env-default:"assets_db"`
	SSLMode  string `yaml:"sslmode" env:"PGSSLMODE" env-default:"disable"`
}

// Storage picks where uploaded bytes live. With UseLocal set, files are
// written under LocalDir; otherwise they go to the MinIO/S3 bucket.
type Storage struct {
	UseLocal bool   `yaml:"use_local" env:"USE_LOCAL_STORAGE" env-default:"true"`
	LocalDir string `yaml:"local_dir" env:"LOCAL_UPLOAD_DIR" env-default:"uploads/images"`
}

type MinIO struct {
	Endpoint        string        `yaml:"endpoint" env:"S3_ENDPOINT" env-default:"s3.amazonaws.com"`
	Region          string        `yaml:"region" env:"AWS_DEFAULT_REGION" env-default:"ap-northeast-2"`
	AccessKeyID     string        `yaml:"access_key_id" env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string        `yaml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY"`
	BucketName      string        `yaml:"bucket_name" env:"S3_BUCKET" env-default:"asset-store"`
	Prefix          string        `yaml:"prefix" env:"S3_PREFIX" env-default:"nsfw_assets/"`
	UseSSL          bool          `yaml:"use_ssl" env:"S3_USE_SSL" env-default:"true"`
	PresignedURLTTL time.Duration `yaml:"presigned_url_ttl" env-default:"168h"`
}

// Redis is optional. An empty Address disables caching and rate limiting.
type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Ingest struct {
	Workers      int    `yaml:"workers" env:"INGEST_WORKERS" env-default:"1"`
	ImagesSubdir string `yaml:"images_subdir" env-default:"resources/nsfw_data"`
	UploadLimit  int64  `yaml:"upload_limit_per_minute" env-default:"120"`
}

type Retention struct {
	After    time.Duration `yaml:"after" env:"RETENTION_AFTER" env-default:"0s"`
	Interval time.Duration `yaml:"interval" env-default:"1h"`
}

// Load reads the YAML file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist at path: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if cfg.Database.Driver != "sqlite" && cfg.Database.Driver != "postgres" {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}
