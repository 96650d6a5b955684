package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkgrid/internal/server"
)

// serveCommand runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API over HTTP",
		Long: `Serve the widget layout API backed by the configured store and cache.
The server shuts down gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config, :8080)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	ch, err := c.newCache(ctx, false)
	if err != nil {
		return err
	}
	defer ch.Close()

	srv := server.New(server.Config{
		Store:  st,
		Layout: c.cfg.GridOptions(),
		Cache:  ch,
		Keyer:  c.newKeyer(),
		Logger: c.Logger,
	})

	printSuccess("Serving linkgrid API")
	printKeyValue("Address", StyleLink.Render(serveURL(addr)))
	printKeyValue("Store", c.cfg.Storage.Backend)
	printKeyValue("Cache", c.cfg.Cache.Backend)
	printNewline()

	err = srv.ListenAndServe(ctx, addr, server.Timeouts{
		Read:     c.cfg.Server.ReadTimeout.Duration,
		Write:    c.cfg.Server.WriteTimeout.Duration,
		Shutdown: c.cfg.Server.ShutdownTimeout.Duration,
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// serveURL turns a listen address into a browsable URL.
func serveURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
