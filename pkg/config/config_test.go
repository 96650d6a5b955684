package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/linkgrid/pkg/grid"
	"github.com/matzehuels/linkgrid/pkg/store"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvStorageDSN, "")
	t.Setenv(EnvRedisAddr, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Backend != store.BackendSQLite {
		t.Errorf("backend = %q", cfg.Storage.Backend)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if got := cfg.GridOptions(); got.GridUnit != grid.DefaultGridUnit || got.MobileWidth != 312 {
		t.Errorf("grid options = %+v", got)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvStorageDSN, "")
	t.Setenv(EnvRedisAddr, "")
	path := writeConfig(t, `
[canvas]
grid_unit = 10
desktop_width = 800

[canvas.sizes.wide]
width = 400
height = 160

[storage]
backend = "mongo"
dsn = "mongodb://localhost:27017"
database = "pages"

[cache]
backend = "none"
prefix = "staging:"

[server]
addr = "127.0.0.1:9000"
read_timeout = "5s"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	o := cfg.GridOptions()
	if o.GridUnit != 10 || o.DesktopWidth != 800 {
		t.Errorf("canvas overrides not applied: %+v", o)
	}
	if e := o.Dimensions(widget.SizeWide, widget.Desktop); e != (grid.Extent{Width: 400, Height: 160}) {
		t.Errorf("wide = %+v", e)
	}
	if e := o.Dimensions(widget.SizeThin, widget.Desktop); e != (grid.Extent{Width: 320, Height: 48}) {
		t.Errorf("thin should keep its default, got %+v", e)
	}

	sc := cfg.StoreConfig()
	if sc.Backend != store.BackendMongo || sc.Database != "pages" {
		t.Errorf("store config = %+v", sc)
	}
	if cfg.Cache.Backend != CacheNone || cfg.Cache.Prefix != "staging:" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Server.ReadTimeout.Duration != 5*time.Second {
		t.Errorf("read timeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout.Duration != 30*time.Second {
		t.Errorf("write timeout default lost: %v", cfg.Server.WriteTimeout)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvStorageDSN, "/tmp/other.db")
	t.Setenv(EnvRedisAddr, "redis:6379")
	cfg, err := Load(writeConfig(t, "[storage]\nbackend = \"sqlite\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.DSN != "/tmp/other.db" {
		t.Errorf("dsn = %q", cfg.Storage.DSN)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisAddr != "redis:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv(EnvRedisAddr, "")
	tests := []struct {
		name, body, want string
	}{
		{"cache backend", "[cache]\nbackend = \"memcached\"\n", "cache backend"},
		{"size tag", "[canvas.sizes.huge]\nwidth = 1\nheight = 1\n", "canvas.sizes"},
		{"search radius", "[canvas]\ngrid_unit = 50\nmax_search = 10\n", "max search"},
		{"duration", "[server]\nread_timeout = \"soon\"\n", "load config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")
	if p, _ := DefaultPath(); p != filepath.Join("/tmp/cfg", "linkgrid", "config.toml") {
		t.Errorf("DefaultPath() = %q", p)
	}
	if p, _ := CacheDir(); p != filepath.Join("/tmp/cache", "linkgrid") {
		t.Errorf("CacheDir() = %q", p)
	}

	t.Setenv("XDG_DATA_HOME", "")
	home, _ := os.UserHomeDir()
	if p, _ := DataDir(); p != filepath.Join(home, ".local", "share", "linkgrid") {
		t.Errorf("DataDir() = %q", p)
	}
}
