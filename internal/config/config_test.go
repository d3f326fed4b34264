package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const validYAML = `
server:
  host: 127.0.0.1
  port: 8484
database:
  driver: sqlite
  path: /tmp/ironlog-test.db
auth:
  api_key: secret
`

// TestLoadValid verifies a minimal valid file parses with its values intact.
func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 8484 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "/tmp/ironlog-test.db" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Auth.APIKey != "secret" {
		t.Errorf("api key = %q", cfg.Auth.APIKey)
	}
}

// TestLoadDefaults verifies the sqlite driver and db path defaults.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: 8484
auth:
  api_key: secret
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Path != "ironlog.db" {
		t.Errorf("default path = %q, want ironlog.db", cfg.Database.Path)
	}
}

// TestEnvOverrides verifies IRONLOG_ variables win over file values.
func TestEnvOverrides(t *testing.T) {
	t.Setenv("IRONLOG_SERVER_PORT", "9999")
	t.Setenv("IRONLOG_DB_DRIVER", "memory")
	t.Setenv("IRONLOG_AUTH_API_KEY", "from-env")

	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want env override 9999", cfg.Server.Port)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("driver = %q, want env override memory", cfg.Database.Driver)
	}
	if cfg.Auth.APIKey != "from-env" {
		t.Errorf("api key = %q, want env override", cfg.Auth.APIKey)
	}
}

// TestValidation exercises the rejection paths.
func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing port",
			yaml:    "auth:\n  api_key: secret\n",
			wantErr: "server.port",
		},
		{
			name:    "missing api key",
			yaml:    "server:\n  port: 8484\n",
			wantErr: "auth.api_key",
		},
		{
			name:    "unknown driver",
			yaml:    "server:\n  port: 8484\ndatabase:\n  driver: oracle\nauth:\n  api_key: secret\n",
			wantErr: "database.driver",
		},
		{
			name:    "postgres without host",
			yaml:    "server:\n  port: 8484\ndatabase:\n  driver: postgres\nauth:\n  api_key: secret\n",
			wantErr: "database.host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

// TestDatabaseURL verifies connection URL formatting per driver.
func TestDatabaseURL(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, Name: "ironlog", User: "app", Password: "pw"}
	want := "postgres://app:pw@db:5432/ironlog?sslmode=disable"
	if got := pg.URL(); got != want {
		t.Errorf("postgres URL = %q, want %q", got, want)
	}

	pg.SSLMode = "require"
	if got := pg.URL(); !strings.HasSuffix(got, "sslmode=require") {
		t.Errorf("sslmode not honored: %q", got)
	}

	sq := DatabaseConfig{Driver: "sqlite", Path: "data/ironlog.db"}
	if got := sq.URL(); got != "sqlite://data/ironlog.db" {
		t.Errorf("sqlite URL = %q", got)
	}
}

// TestLoadMissingFile verifies a readable error for a bad path.
func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
