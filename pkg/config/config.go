// Package config loads linkgrid's TOML configuration.
//
// The file lives at $XDG_CONFIG_HOME/linkgrid/config.toml (or
// ~/.config/linkgrid/config.toml) unless a path is given explicitly. A
// missing file yields the defaults. Two environment variables override the
// file: LINKGRID_STORAGE_DSN and LINKGRID_REDIS_ADDR.
//
//	[canvas]
//	grid_unit = 20
//	desktop_width = 600
//
//	[canvas.sizes.wide]
//	width = 320
//	height = 152
//
//	[storage]
//	backend = "sqlite"
//	dsn = "/var/lib/linkgrid/widgets.db"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	prefix = "staging:"
//
//	[server]
//	addr = ":8080"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/linkgrid/pkg/grid"
	"github.com/matzehuels/linkgrid/pkg/store"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

const appName = "linkgrid"

// Environment overrides.
const (
	EnvStorageDSN = "LINKGRID_STORAGE_DSN"
	EnvRedisAddr  = "LINKGRID_REDIS_ADDR"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the whole configuration file.
type Config struct {
	Canvas  Canvas  `toml:"canvas"`
	Storage Storage `toml:"storage"`
	Cache   Cache   `toml:"cache"`
	Server  Server  `toml:"server"`
}

// Canvas overrides layout constants. Zero values keep the defaults.
type Canvas struct {
	GridUnit     float64                `toml:"grid_unit"`
	Margin       float64                `toml:"margin"`
	Padding      float64                `toml:"padding"`
	MaxSearch    float64                `toml:"max_search"`
	MobileSide   float64                `toml:"mobile_side"`
	DesktopWidth float64                `toml:"desktop_width"`
	MobileWidth  float64                `toml:"mobile_width"`
	Sizes        map[string]grid.Extent `toml:"sizes"`
}

// Storage selects the widget store.
type Storage struct {
	Backend  string `toml:"backend"`
	DSN      string `toml:"dsn"`
	Database string `toml:"database"`
}

// Cache selects the preview cache.
type Cache struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	// Prefix namespaces every key, so environments can share one Redis.
	Prefix string `toml:"prefix"`
}

// Server configures `linkgrid serve`.
type Server struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// Duration decodes TOML strings such as "15s".
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	dataDir, _ := DataDir()
	cacheDir, _ := CacheDir()
	return Config{
		Storage: Storage{
			Backend: store.BackendSQLite,
			DSN:     filepath.Join(dataDir, "widgets.db"),
		},
		Cache: Cache{
			Backend: CacheFile,
			Dir:     cacheDir,
		},
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     Duration{15 * time.Second},
			WriteTimeout:    Duration{30 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
		},
	}
}

// Load reads the file at path on top of the defaults. An empty path means
// DefaultPath; a missing default file is not an error, a missing explicit
// one is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			cfg.applyEnv()
			return cfg, nil
		}
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			cfg.applyEnv()
			return cfg, nil
		}
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, cfg.validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvStorageDSN); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
		if c.Cache.Backend == "" || c.Cache.Backend == CacheFile {
			c.Cache.Backend = CacheRedis
		}
	}
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone, "":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	for name := range c.Canvas.Sizes {
		if _, err := widget.ParseSize(name); err != nil {
			return fmt.Errorf("canvas.sizes: %w", err)
		}
	}
	return c.GridOptions().Check()
}

// GridOptions returns layout options with the canvas overrides applied.
func (c Config) GridOptions() grid.Options {
	o := grid.Options{
		GridUnit:     c.Canvas.GridUnit,
		Margin:       c.Canvas.Margin,
		Padding:      c.Canvas.Padding,
		MaxSearch:    c.Canvas.MaxSearch,
		MobileSide:   c.Canvas.MobileSide,
		DesktopWidth: c.Canvas.DesktopWidth,
		MobileWidth:  c.Canvas.MobileWidth,
	}
	if len(c.Canvas.Sizes) > 0 {
		o.DesktopSizes = grid.DefaultDesktopSizes()
		for name, e := range c.Canvas.Sizes {
			o.DesktopSizes[widget.Size(name)] = e
		}
	}
	o.SetDefaults()
	return o
}

// StoreConfig converts the storage section.
func (c Config) StoreConfig() store.Config {
	return store.Config{Backend: c.Storage.Backend, DSN: c.Storage.DSN, Database: c.Storage.Database}
}

// =============================================================================
// Paths
// =============================================================================

// DefaultPath returns the default configuration file location.
func DefaultPath() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config", "config.toml")
}

// CacheDir returns the preview cache directory.
func CacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache", "")
}

// DataDir returns the directory of the default SQLite database.
func DataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"), "")
}

func xdgDir(env, fallback, file string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	return filepath.Join(base, appName, file), nil
}
