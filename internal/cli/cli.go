// Package cli implements the linkgrid command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/linkgrid/pkg/buildinfo"
	"github.com/matzehuels/linkgrid/pkg/cache"
	"github.com/matzehuels/linkgrid/pkg/config"
	"github.com/matzehuels/linkgrid/pkg/editor"
	"github.com/matzehuels/linkgrid/pkg/page"
	"github.com/matzehuels/linkgrid/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "linkgrid"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Linkgrid lays out link-in-bio widget pages",
		Long:         `Linkgrid places, checks and renders the widgets of link-in-bio pages on a snapped, collision-free grid, for desktop and mobile.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	c.configure(root)

	// Page file editing
	root.AddCommand(c.addCommand())
	root.AddCommand(c.placeCommand())
	root.AddCommand(c.resizeCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.arrangeCommand())
	root.AddCommand(c.editCommand())

	// Inspection
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.renderCommand())

	// Storage and serving
	root.AddCommand(c.pushCommand())
	root.AddCommand(c.pullCommand())
	root.AddCommand(c.serveCommand())

	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Collaborators
// =============================================================================

// newCache opens the configured preview cache.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     c.cfg.Cache.RedisAddr,
			Password: c.cfg.Cache.RedisPassword,
			DB:       c.cfg.Cache.RedisDB,
		})
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newKeyer returns the cache keyer, scoped by the configured prefix.
func (c *CLI) newKeyer() cache.Keyer {
	if c.cfg.Cache.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.cfg.Cache.Prefix)
}

// openStore connects to the configured widget store.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	sc := c.cfg.StoreConfig()
	c.Logger.Debug("opening store", "backend", sc.Backend)
	return store.Open(ctx, sc)
}

// openPage reads a page file into an editor.
func (c *CLI) openPage(ctx context.Context, path string) (*editor.Editor, *page.Page, error) {
	p, err := page.Read(path)
	if err != nil {
		return nil, nil, err
	}
	e, loaded, err := editor.Load(ctx, p, p.ID,
		editor.WithLogger(c.Logger),
		editor.WithOptions(c.cfg.GridOptions()),
	)
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Debug("loaded page", "page", p.ID, "widgets", e.Len(),
		"defaulted", loaded.Defaulted, "issues", len(loaded.Issues))
	return e, p, nil
}

// savePage writes the editor's widgets back to path.
func savePage(path string, e *editor.Editor) error {
	p, err := page.FromWidgets(e.PageID(), e.Widgets())
	if err != nil {
		return err
	}
	return page.Write(path, p)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, falling back to the XDG
// location (~/.cache/linkgrid/).
func (c *CLI) cacheDir() (string, error) {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir, nil
	}
	return config.CacheDir()
}
