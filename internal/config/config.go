// Package config resolves runtime settings from an optional .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendLocal = "local"
	BackendAPI   = "api"

	StorageSQLite = "sqlite"
	StorageMongo  = "mongo"
)

const (
	EnvBackend        = "REHABINV_BACKEND"
	EnvAPIURL         = "REHABINV_API_URL"
	EnvDir            = "REHABINV_DIR"
	EnvLog            = "REHABINV_LOG"
	EnvLogLevel       = "REHABINV_LOG_LEVEL"
	EnvSearchDebounce = "REHABINV_SEARCH_DEBOUNCE_MS"
	EnvAddr           = "REHABINV_ADDR"
	EnvStorage        = "REHABINV_STORAGE"
	EnvMongoURI       = "MONGODB_URI"
	EnvMongoDB        = "MONGODB_DB_NAME"
	EnvBackupCron     = "REHABINV_BACKUP_CRON"
	EnvBackupDir      = "REHABINV_BACKUP_DIR"
	EnvTheme          = "REHABINV_TUI_THEME"
)

// Config is the full configuration surface of the binary.
type Config struct {
	Client ClientConfig
	Server ServerConfig
	Mongo  MongoConfig
	Backup BackupConfig
	Log    LogConfig
}

// ClientConfig selects the gateway used by the TUI and the items commands.
type ClientConfig struct {
	Backend        string
	APIURL         string
	Dir            string
	SearchDebounce time.Duration
	Theme          string
}

type ServerConfig struct {
	Addr    string
	Storage string
}

type MongoConfig struct {
	URI    string
	DBName string
}

// BackupConfig enables the scheduled CSV export when Cron is set.
type BackupConfig struct {
	Cron string
	Dir  string
}

type LogConfig struct {
	// File is where the TUI logs; empty disables TUI logging.
	File  string
	Level string
}

// Load reads environment variables (optionally from envFile, else ./.env when
// present) and materializes a Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env is fine; configuration may come from the environment directly.
		_ = godotenv.Load()
	}

	dir := getenvWithDefault(EnvDir, "")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".rehabinv")
	}

	debounceMs, err := getenvInt(EnvSearchDebounce, 200)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Client: ClientConfig{
			Backend:        strings.ToLower(getenvWithDefault(EnvBackend, BackendLocal)),
			APIURL:         getenvWithDefault(EnvAPIURL, "http://localhost:3000/api"),
			Dir:            dir,
			SearchDebounce: time.Duration(debounceMs) * time.Millisecond,
			Theme:          getenvWithDefault(EnvTheme, "auto"),
		},
		Server: ServerConfig{
			Addr:    getenvWithDefault(EnvAddr, ":3000"),
			Storage: strings.ToLower(getenvWithDefault(EnvStorage, StorageSQLite)),
		},
		Mongo: MongoConfig{
			URI:    os.Getenv(EnvMongoURI),
			DBName: getenvWithDefault(EnvMongoDB, "rehabinv"),
		},
		Backup: BackupConfig{
			Cron: os.Getenv(EnvBackupCron),
			Dir:  getenvWithDefault(EnvBackupDir, filepath.Join(dir, "backups")),
		},
		Log: LogConfig{
			File:  os.Getenv(EnvLog),
			Level: getenvWithDefault(EnvLogLevel, "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enum-like fields. Mongo settings are only required when the
// server storage is mongo.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	switch c.Client.Backend {
	case BackendLocal, BackendAPI:
	default:
		return fmt.Errorf("%s must be %q or %q (got %q)", EnvBackend, BackendLocal, BackendAPI, c.Client.Backend)
	}
	if c.Client.Backend == BackendAPI && strings.TrimSpace(c.Client.APIURL) == "" {
		return fmt.Errorf("%s must be provided when %s=api", EnvAPIURL, EnvBackend)
	}
	if c.Client.SearchDebounce < 0 {
		return fmt.Errorf("%s must not be negative", EnvSearchDebounce)
	}
	switch c.Server.Storage {
	case StorageSQLite, StorageMongo:
	default:
		return fmt.Errorf("%s must be %q or %q (got %q)", EnvStorage, StorageSQLite, StorageMongo, c.Server.Storage)
	}
	if c.Server.Storage == StorageMongo && strings.TrimSpace(c.Mongo.URI) == "" {
		return fmt.Errorf("%s must be provided when %s=mongo", EnvMongoURI, EnvStorage)
	}
	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
