package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/linkgrid/pkg/config"
)

// configure registers the global --config flag and loads the configuration
// before any command runs. Loading happens in PersistentPreRunE so that
// main can chain its own pre-run around it.
func (c *CLI) configure(root *cobra.Command) {
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/linkgrid/config.toml)")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return c.loadConfig()
	}
}

// loadConfig reads the configuration file, keeping defaults when none exists.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("configuration loaded",
		"storage", cfg.Storage.Backend,
		"cache", cfg.Cache.Backend,
		"unit", cfg.GridOptions().GridUnit)
	return nil
}
