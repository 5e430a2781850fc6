package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/familygrid/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(EnvMongoURI, "")
	t.Setenv(EnvRedisAddr, "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvMongoURI, "")
	t.Setenv(EnvRedisAddr, "")
	path := writeConfig(t, `
[store]
backend = "mongo"
mongo_uri = "mongodb://db:27017"

[cache]
backend = "redis"
redis_addr = "cache:6379"
redis_db = 2

[server]
addr = "127.0.0.1:9000"
cors_origins = ["https://example.org"]

[render]
format = "svg"
theme = "dark"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Store.Backend != "mongo" || cfg.Store.MongoURI != "mongodb://db:27017" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Store.MongoDatabase != "familygrid" {
		t.Errorf("MongoDatabase = %q, want default kept", cfg.Store.MongoDatabase)
	}
	if cfg.Cache.RedisAddr != "cache:6379" || cfg.Cache.RedisDB != 2 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || len(cfg.Server.CORSOrigins) != 1 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Render.Format != "svg" || cfg.Render.CellWidth != 12 || cfg.Render.Theme != "dark" {
		t.Errorf("Render = %+v", cfg.Render)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv(EnvMongoURI, "mongodb://env:27017")
	t.Setenv(EnvRedisAddr, "env:6379")
	cfg, err := Load(writeConfig(t, "[store]\nbackend = \"mongo\"\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Store.MongoURI != "mongodb://env:27017" || cfg.Cache.RedisAddr != "env:6379" {
		t.Errorf("env not applied: %+v %+v", cfg.Store, cfg.Cache)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(EnvMongoURI, "")
	t.Setenv(EnvRedisAddr, "")
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"syntax", "[store\n", "parse"},
		{"unknown key", "[store]\ncolour = \"red\"\n", "unknown keys store.colour"},
		{"bad backend", "[store]\nbackend = \"sqlite\"\n", "Store.Backend must be one of: file mongo"},
		{"mongo without uri", "[store]\nbackend = \"mongo\"\n", "Store.MongoURI is required"},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n", "Cache.RedisAddr is required"},
		{"bad addr", "[server]\naddr = \"nowhere\"\n", "Server.Addr must be host:port"},
		{"narrow cells", "[render]\ncell_width = 1\n", "Render.CellWidth failed min 3"},
		{"bad format", "[render]\nformat = \"gif\"\n", "Render.Format must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, errors.ErrCodeConfiguration) {
				t.Fatalf("Load() error = %v, want CONFIGURATION_ERROR", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Load() error = %q, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	tests := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{"config", Path, "/tmp/xdg-config/familygrid/config.toml"},
		{"cache", CacheDir, "/tmp/xdg-cache/familygrid"},
		{"data", DataDir, "/tmp/xdg-data/familygrid/trees"},
	}
	for _, tt := range tests {
		got, err := tt.fn()
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestPathsDefault(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	dir, err := CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, ".cache", AppName); dir != want {
		t.Errorf("CacheDir() = %q, want %q", dir, want)
	}
}
