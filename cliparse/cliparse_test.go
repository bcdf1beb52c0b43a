// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/training-catalogue/db"
)

// setBaseEnv sets the required variables and points -env at a file that
// does not exist, so a developer's .env cannot leak into the test.
func setBaseEnv(t *testing.T) []string {
	t.Helper()
	for _, k := range []string{"PORT", "DATABASE_URL", "DATABASE_TYPE", "ADMIN_KEY", "CATALOGUE_DIR", "SHAREPOINT_SYNC_ENABLED", "GRAPH_RATE_LIMIT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("ADMIN_KEY", "test-admin-key")
	return []string{"-env", filepath.Join(t.TempDir(), "missing.env")}
}

func TestParseFlags_EnvVars(t *testing.T) {
	args := setBaseEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("CATALOGUE_DIR", "/data/catalogue")
	t.Setenv("SHAREPOINT_SYNC_ENABLED", "true")
	t.Setenv("GRAPH_RATE_LIMIT", "2.5")

	cfg, err := ParseFlags(args)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.AdminKey != "test-admin-key" {
		t.Errorf("expected admin key from env, got %q", cfg.AdminKey)
	}
	if cfg.CatalogueDir != "/data/catalogue" {
		t.Errorf("expected catalogue dir from env, got %q", cfg.CatalogueDir)
	}
	if !cfg.SharePointEnabled {
		t.Error("expected SharePoint sync enabled")
	}
	if cfg.GraphRateLimit != 2.5 {
		t.Errorf("expected rate limit 2.5, got %v", cfg.GraphRateLimit)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	cfg, err := ParseFlags(setBaseEnv(t))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected default port 3318, got %d", cfg.Port)
	}
	if cfg.DatabaseType != db.Postgres {
		t.Errorf("expected postgres by default, got %q", cfg.DatabaseType)
	}
	if cfg.DBWait != 30*time.Second {
		t.Errorf("expected 30s db wait, got %v", cfg.DBWait)
	}
	if cfg.SharePointEnabled {
		t.Error("SharePoint sync should be off by default")
	}
	if cfg.GraphRateLimit != 10 {
		t.Errorf("expected rate limit 10, got %v", cfg.GraphRateLimit)
	}
	if cfg.SyncOnce != SyncNone {
		t.Errorf("expected no one-shot sync, got %q", cfg.SyncOnce)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	args := setBaseEnv(t)
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags(append(args, "-p", "8080", "-d", "file:test.db", "-t", "sqlite", "-admin-key", "k1"))
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "file:test.db" || cfg.DatabaseType != db.SQLite {
		t.Errorf("unexpected database config %q %q", cfg.DatabaseURL, cfg.DatabaseType)
	}
	if cfg.AdminKey != "k1" {
		t.Errorf("CLI should override env admin key, got %q", cfg.AdminKey)
	}
}

func TestParseFlags_EnvFile(t *testing.T) {
	args := setBaseEnv(t)
	os.Unsetenv("ADMIN_KEY")

	path := filepath.Join(t.TempDir(), "test.env")
	content := "ADMIN_KEY=from-file\nCATALOGUE_DIR=/mnt/catalogue\nDATABASE_URL=postgres://ignored\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	args[1] = path
	t.Cleanup(func() { os.Unsetenv("CATALOGUE_DIR") })

	cfg, err := ParseFlags(args)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.AdminKey != "from-file" {
		t.Errorf("expected admin key from env file, got %q", cfg.AdminKey)
	}
	if cfg.CatalogueDir != "/mnt/catalogue" {
		t.Errorf("expected catalogue dir from env file, got %q", cfg.CatalogueDir)
	}
	// Variables already set win over the file
	if cfg.DatabaseURL != "postgres://test" {
		t.Errorf("env file should not override DATABASE_URL, got %q", cfg.DatabaseURL)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		unset   []string
		args    []string
		wantErr string
	}{
		{"missing database url", nil, []string{"DATABASE_URL"}, nil, "database URL required"},
		{"missing admin key", nil, []string{"ADMIN_KEY"}, nil, "ADMIN_KEY required"},
		{"bad port", map[string]string{"PORT": "abc"}, nil, nil, "invalid PORT"},
		{"bad database type", nil, nil, []string{"-t", "mysql"}, "unknown database type"},
		{"bad sharepoint flag", map[string]string{"SHAREPOINT_SYNC_ENABLED": "maybe"}, nil, nil, "invalid SHAREPOINT_SYNC_ENABLED"},
		{"bad rate limit", map[string]string{"GRAPH_RATE_LIMIT": "0"}, nil, nil, "invalid GRAPH_RATE_LIMIT"},
		{"folder sync without dir", nil, nil, []string{"-sync", "folder"}, "requires -catalogue-dir"},
		{"sharepoint sync disabled", nil, nil, []string{"-sync", "sharepoint"}, "requires SHAREPOINT_SYNC_ENABLED"},
		{"unknown sync mode", nil, nil, []string{"-sync", "zip"}, "unknown sync mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			for _, k := range tt.unset {
				os.Unsetenv(k)
			}

			_, err := ParseFlags(append(args, tt.args...))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
