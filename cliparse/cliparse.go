package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/training-catalogue/db"
)

// One-shot sync modes for -sync
const (
	SyncNone       = ""
	SyncFolder     = "folder"
	SyncSharePoint = "sharepoint"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType db.Dialect
	DBWait       time.Duration
	AdminKey     string

	// Local mirror of the catalogue library for folder syncs
	CatalogueDir string

	SharePointEnabled bool
	GraphRateLimit    float64

	// Run one sync and exit instead of serving
	SyncOnce string
}

// ParseFlags validates flags and fills the rest from the environment.
// A .env file (or -env path) is loaded first; it never overrides variables
// already set.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var dbType, envFile string

	fs := flag.NewFlagSet("training-catalogue", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&dbType, "t", "", "Database type (postgres or sqlite)")
	fs.DurationVar(&cfg.DBWait, "db-wait", 30*time.Second, "How long to retry the initial database connection")
	fs.StringVar(&cfg.AdminKey, "admin-key", "", "Admin key (prefer env)")
	fs.StringVar(&cfg.CatalogueDir, "catalogue-dir", "", "Local catalogue folder for folder syncs")
	fs.StringVar(&cfg.SyncOnce, "sync", "", "Run one sync (folder or sharepoint) and exit")
	fs.StringVar(&envFile, "env", ".env", "Env file to load")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if dbType == "" {
		dbType = os.Getenv("DATABASE_TYPE")
		if dbType == "" {
			dbType = string(db.Postgres)
		}
	}
	dialect, ok := db.ParseDialect(dbType)
	if !ok {
		return Config{}, fmt.Errorf("unknown database type %q", dbType)
	}
	cfg.DatabaseType = dialect

	// Secrets - MUST be provided
	if cfg.AdminKey == "" {
		cfg.AdminKey = os.Getenv("ADMIN_KEY")
	}
	if cfg.AdminKey == "" {
		return Config{}, errors.New("ADMIN_KEY required")
	}

	if cfg.CatalogueDir == "" {
		cfg.CatalogueDir = os.Getenv("CATALOGUE_DIR")
	}

	if v := os.Getenv("SHAREPOINT_SYNC_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, errors.New("invalid SHAREPOINT_SYNC_ENABLED env variable")
		}
		cfg.SharePointEnabled = enabled
	}

	cfg.GraphRateLimit = 10
	if v := os.Getenv("GRAPH_RATE_LIMIT"); v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil || limit <= 0 {
			return Config{}, errors.New("invalid GRAPH_RATE_LIMIT env variable")
		}
		cfg.GraphRateLimit = limit
	}

	switch cfg.SyncOnce {
	case SyncNone:
	case SyncFolder:
		if cfg.CatalogueDir == "" {
			return Config{}, errors.New("-sync folder requires -catalogue-dir or CATALOGUE_DIR")
		}
	case SyncSharePoint:
		if !cfg.SharePointEnabled {
			return Config{}, errors.New("-sync sharepoint requires SHAREPOINT_SYNC_ENABLED=true")
		}
	default:
		return Config{}, fmt.Errorf("unknown sync mode %q (use folder or sharepoint)", cfg.SyncOnce)
	}

	return cfg, nil
}
