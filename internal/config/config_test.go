package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvBackend, EnvAPIURL, EnvDir, EnvLog, EnvLogLevel, EnvSearchDebounce, EnvAddr,
		EnvStorage, EnvMongoURI, EnvMongoDB, EnvBackupCron, EnvBackupDir, EnvTheme,
	} {
		// Setenv registers the restore; godotenv skips keys that exist even when empty.
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv(EnvDir, dir)

	cfg, err := Load(filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Client.Backend != BackendLocal {
		t.Fatalf("backend: %q", cfg.Client.Backend)
	}
	if cfg.Client.APIURL != "http://localhost:3000/api" {
		t.Fatalf("api url: %q", cfg.Client.APIURL)
	}
	if cfg.Client.SearchDebounce != 200*time.Millisecond {
		t.Fatalf("debounce: %v", cfg.Client.SearchDebounce)
	}
	if cfg.Server.Addr != ":3000" || cfg.Server.Storage != StorageSQLite {
		t.Fatalf("server: %+v", cfg.Server)
	}
	if cfg.Backup.Dir != filepath.Join(dir, "backups") {
		t.Fatalf("backup dir: %q", cfg.Backup.Dir)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	body := strings.Join([]string{
		"REHABINV_BACKEND=api",
		"REHABINV_API_URL=http://inventory.local/api",
		"REHABINV_SEARCH_DEBOUNCE_MS=50",
		"REHABINV_DIR=" + dir,
	}, "\n")
	if err := os.WriteFile(envFile, []byte(body), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Client.Backend != BackendAPI || cfg.Client.APIURL != "http://inventory.local/api" {
		t.Fatalf("client: %+v", cfg.Client)
	}
	if cfg.Client.SearchDebounce != 50*time.Millisecond {
		t.Fatalf("debounce: %v", cfg.Client.SearchDebounce)
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDir, t.TempDir())

	t.Setenv(EnvBackend, "carrier-pigeon")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), EnvBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}

	t.Setenv(EnvBackend, "")
	t.Setenv(EnvStorage, "mongo")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), EnvMongoURI) {
		t.Fatalf("expected mongo uri error, got %v", err)
	}

	t.Setenv(EnvStorage, "")
	t.Setenv(EnvSearchDebounce, "soon")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected debounce parse error")
	}
}
