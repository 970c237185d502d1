package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/careline/triage/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "1m"
write_timeout = "15m"
shutdown_timeout = "30s"

[database]
host = "localhost"
port = 5432
name = "triage"
user = "triage"
password = "triage"
ssl_mode = "disable"
max_open_conns = 25
max_idle_conns = 5
conn_max_lifetime = "15m"
conn_timeout = "5s"

[storage]
container_name = "transcripts"
connection_string = "DefaultEndpointsProtocol=http;AccountName=triagestore;AccountKey=key;BlobEndpoint=http://127.0.0.1:10000/triagestore;"

[generation]
base_url = "http://localhost:11434/v1"
model = "llama3.1:8b"
max_tokens = 4000
timeout = "2m"
max_retries = 2
retry_delay = "2s"

[api]
base_path = "/api"
max_request_size = "1MB"
min_transcript_length = 10

[api.cors]
enabled = false

[api.pagination]
default_page_size = 25
max_page_size = 50
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"
`

// minimalConfig carries only the fields validation cannot default
// (db name and user, storage connection string, generation endpoint).
const minimalConfig = `
[database]
name = "triage"
user = "triage"

[storage]
connection_string = "conn"

[generation]
base_url = "http://localhost:11434/v1"
model = "llama3.1:8b"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "triage" {
		t.Errorf("database name: got %q, want triage", cfg.Database.Name)
	}
	if cfg.Storage.ContainerName != "transcripts" {
		t.Errorf("container name: got %q, want transcripts", cfg.Storage.ContainerName)
	}
	if cfg.Generation.Model != "llama3.1:8b" {
		t.Errorf("generation model: got %q, want llama3.1:8b", cfg.Generation.Model)
	}
	if cfg.API.Pagination.DefaultPageSize != 25 {
		t.Errorf("default page size: got %d, want 25", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.API.MinTranscriptLength != 10 {
		t.Errorf("min transcript length: got %d, want 10", cfg.API.MinTranscriptLength)
	}
	if cfg.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("shutdown timeout: got %v, want 30s", cfg.ShutdownTimeoutDuration())
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	t.Setenv("TRIAGE_DB_NAME", "triage")
	t.Setenv("TRIAGE_DB_USER", "triage")
	t.Setenv("TRIAGE_STORAGE_CONNECTION_STRING", "conn")
	t.Setenv("TRIAGE_GENERATION_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("TRIAGE_GENERATION_MODEL", "llama3.1:8b")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("default server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("default base path: got %q, want /api", cfg.API.BasePath)
	}
	if cfg.API.MinTranscriptLength != 10 {
		t.Errorf("default min transcript length: got %d, want 10", cfg.API.MinTranscriptLength)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv("TRIAGE_ENV", "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("overlay port: got %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("overlay db host: got %q, want prodhost", cfg.Database.Host)
	}
	// Untouched base values survive the merge.
	if cfg.Database.Name != "triage" {
		t.Errorf("base db name lost in merge: got %q", cfg.Database.Name)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", minimalConfig)
	chdir(t, dir)

	t.Setenv("TRIAGE_SERVER_PORT", "3000")
	t.Setenv("TRIAGE_GENERATION_MODEL", "llama3.2:3b")
	t.Setenv("TRIAGE_API_MIN_TRANSCRIPT_LENGTH", "25")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("env port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Generation.Model != "llama3.2:3b" {
		t.Errorf("env model: got %q, want llama3.2:3b", cfg.Generation.Model)
	}
	if cfg.API.MinTranscriptLength != 25 {
		t.Errorf("env min transcript length: got %d, want 25", cfg.API.MinTranscriptLength)
	}
}

func TestLoadValidationFailure(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", `
[database]
name = "triage"
user = "triage"

[storage]
connection_string = "conn"
`)
	chdir(t, dir)

	_, err := config.Load()
	if err == nil {
		t.Fatal("expected validation failure without generation config")
	}
	if !strings.Contains(err.Error(), "generation") {
		t.Errorf("expected generation validation error, got %v", err)
	}
}

func TestMaxRequestSizeBytes(t *testing.T) {
	cfg := config.APIConfig{MaxRequestSize: "2MB"}
	if got := cfg.MaxRequestSizeBytes(); got != 2*1024*1024 {
		t.Errorf("got %d, want 2MB in bytes", got)
	}

	cfg.MaxRequestSize = "garbage"
	if got := cfg.MaxRequestSizeBytes(); got != 1024*1024 {
		t.Errorf("invalid size should fall back to 1MB, got %d", got)
	}
}
