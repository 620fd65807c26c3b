// Package config loads menuboard settings.
//
// Values are resolved in four steps, each overriding the previous one:
//
//  1. struct defaults (default tags, applied with creasty/defaults)
//  2. an optional TOML file
//  3. environment variables (env tags, applied with caarlos0/env)
//  4. validation (validate tags, checked with go-playground/validator)
//
// Spreadsheet credentials are not required at load time. The server starts
// without them and requests that need a sheet fail with MISSING_CONFIGURATION,
// see [Config.RequireSheets].
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	errs "github.com/matzehuels/menuboard/pkg/errors"
)

// DefaultFile is read from the working directory when no file is given.
const DefaultFile = "menuboard.toml"

// Sheet source kinds.
const (
	SourceGoogle = "google"
	SourceXLSX   = "xlsx"
)

// Config is the complete application configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Assets AssetsConfig `toml:"assets"`
	Sheets SheetsConfig `toml:"sheets"`
	Render RenderConfig `toml:"render"`
	Export ExportConfig `toml:"export"`
	Redis  RedisConfig  `toml:"redis"`
	Mongo  MongoConfig  `toml:"mongo"`
	MinIO  MinIOConfig  `toml:"minio"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int           `toml:"port" env:"PORT" default:"3000" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
	MaxBodyBytes    int64         `toml:"max_body_bytes" env:"MAX_BODY_BYTES" default:"5242880" validate:"min=1024"`
}

// AssetsConfig locates the static site and its SVG templates.
type AssetsConfig struct {
	PublicDir     string `toml:"public_dir" env:"PUBLIC_DIR" default:"public" validate:"required"`
	DefaultSVGURL string `toml:"default_svg_url" env:"SVG_SOURCE_URL" default:"/assets/menu1.svg" validate:"required,startswith=/assets/"`
	MaxSVGMB      int    `toml:"max_svg_mb" env:"MAX_SVG_MB" default:"270" validate:"min=1"`
}

// SheetsConfig selects and addresses the spreadsheet.
type SheetsConfig struct {
	Source     string        `toml:"source" env:"SHEET_SOURCE" default:"google" validate:"oneof=google xlsx"`
	ID         string        `toml:"id" env:"GOOGLE_SHEETS_ID"`
	APIKey     string        `toml:"api_key" env:"GOOGLE_API_KEY"`
	SheetName  string        `toml:"sheet_name" env:"GOOGLE_SHEETS_SHEET_NAME"`
	Range      string        `toml:"range" env:"GOOGLE_SHEETS_RANGE" default:"A3:B" validate:"required"`
	PriceRange string        `toml:"price_range" env:"GOOGLE_SHEETS_PRICE_RANGE" default:"C3:C" validate:"required"`
	XLSXPath   string        `toml:"xlsx_path" env:"XLSX_PATH"`
	Timeout    time.Duration `toml:"timeout" env:"SHEETS_TIMEOUT" default:"15s" validate:"gt=0"`
	Attempts   int           `toml:"attempts" env:"SHEETS_ATTEMPTS" default:"3" validate:"min=1,max=10"`
}

// RenderConfig controls rasterization.
type RenderConfig struct {
	Scale      float64 `toml:"scale" env:"RENDER_SCALE" default:"1" validate:"gt=0,lte=8"`
	Background string  `toml:"background" env:"RENDER_BACKGROUND"`
}

// ExportConfig controls where exported PNGs go.
// Store is "file" (SAVED_SVG_FOLDER) or "redis".
type ExportConfig struct {
	Store  string        `toml:"store" env:"EXPORT_STORE" default:"file" validate:"oneof=file redis"`
	Folder string        `toml:"folder" env:"SAVED_SVG_FOLDER" default:"saved-svg" validate:"required"`
	TTL    time.Duration `toml:"ttl" env:"EXPORT_TTL" default:"168h"`
}

// RedisConfig enables the redis export store when Addr is set.
type RedisConfig struct {
	Addr     string `toml:"addr" env:"REDIS_ADDR"`
	Password string `toml:"password" env:"REDIS_PASSWORD"`
	DB       int    `toml:"db" env:"REDIS_DB" validate:"min=0"`
}

// MongoConfig enables export history when URI is set.
type MongoConfig struct {
	URI        string `toml:"uri" env:"MONGO_URI"`
	Database   string `toml:"database" env:"MONGO_DATABASE" default:"menuboard"`
	Collection string `toml:"collection" env:"MONGO_COLLECTION" default:"exports"`
}

// MinIOConfig enables uploads when Endpoint is set.
type MinIOConfig struct {
	Endpoint  string        `toml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey string        `toml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string        `toml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket    string        `toml:"bucket" env:"MINIO_BUCKET" default:"menuboard"`
	UseSSL    bool          `toml:"use_ssl" env:"MINIO_USE_SSL"`
	URLExpiry time.Duration `toml:"url_expiry" env:"MINIO_URL_EXPIRY" default:"24h"`
}

// Options tunes [Load].
type Options struct {
	// File is a TOML file to read. When empty, DefaultFile is read if it exists.
	File string

	// Environment replaces the process environment. Used by tests.
	Environment map[string]string
}

// Load resolves the configuration. An explicitly named file that does not
// exist is an error; a missing DefaultFile is not.
func Load(opts Options) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "apply defaults")
	}

	if err := loadFile(cfg, opts.File); err != nil {
		return nil, err
	}

	envOpts := env.Options{}
	if opts.Environment != nil {
		envOpts.Environment = opts.Environment
	}
	if err := env.Parse(cfg, envOpts); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "read environment")
	}

	cfg.Sheets.Source = strings.ToLower(strings.TrimSpace(cfg.Sheets.Source))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return errs.Wrap(errs.ErrCodeNotFound, err, "config file %s", path)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errs.New(errs.ErrCodeInvalidInput, "unknown keys in %s: %v", path, undecoded)
	}
	return nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid configuration")
	}
	if c.Export.Store == "redis" && strings.TrimSpace(c.Redis.Addr) == "" {
		return errs.New(errs.ErrCodeInvalidInput, "export store redis requires REDIS_ADDR")
	}
	return nil
}

// RequireSheets reports MISSING_CONFIGURATION when the selected sheet source
// lacks the settings it needs to read rows.
func (c *Config) RequireSheets() error {
	switch c.Sheets.Source {
	case SourceXLSX:
		if strings.TrimSpace(c.Sheets.XLSXPath) == "" {
			return errs.New(errs.ErrCodeMissingConfig, "Missing XLSX_PATH.")
		}
	default:
		if strings.TrimSpace(c.Sheets.ID) == "" || strings.TrimSpace(c.Sheets.APIKey) == "" {
			return errs.New(errs.ErrCodeMissingConfig, "Missing GOOGLE_SHEETS_ID or GOOGLE_API_KEY.")
		}
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
