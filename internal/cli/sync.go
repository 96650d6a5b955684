package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/linkgrid/pkg/editor"
	lgerrors "github.com/matzehuels/linkgrid/pkg/errors"
	"github.com/matzehuels/linkgrid/pkg/page"
	"github.com/matzehuels/linkgrid/pkg/store"
)

// syncConcurrency bounds how many pages are transferred at once.
const syncConcurrency = 4

// =============================================================================
// push
// =============================================================================

// pushCommand uploads page files to the configured store.
func (c *CLI) pushCommand() *cobra.Command {
	var normalize bool

	cmd := &cobra.Command{
		Use:   "push PAGE_FILE...",
		Short: "Upload page files to the store",
		Long: `Upload page files to the configured store. Each widget record is inserted
or replaced; records already in the store that are not in the file are left
alone. Positions are stored as written unless --normalize is given, in
which case missing or unreadable positions are computed first.

Cached copies of the pushed pages are dropped afterwards, so a server
sharing the cache serves the new layout on its next request.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPush(cmd.Context(), args, normalize)
		},
	}

	cmd.Flags().BoolVar(&normalize, "normalize", false, "compute missing positions before uploading")
	return cmd
}

func (c *CLI) runPush(ctx context.Context, paths []string, normalize bool) error {
	pages := make([]*page.Page, len(paths))
	for i, path := range paths {
		p, err := page.Read(path)
		if err != nil {
			return err
		}
		if err := lgerrors.ValidatePageID(p.ID); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if normalize {
			loaded := editor.Materialize(p.Widgets, c.cfg.GridOptions())
			if p, err = page.FromWidgets(p.ID, loaded.Widgets); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		pages[i] = p
	}

	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Pushing %d pages...", len(pages)))
	spinner.Start()

	counts := make([]int, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncConcurrency)
	for i, p := range pages {
		g.Go(func() error {
			n, err := pushPage(gctx, st, p)
			counts[i] = n
			return err
		})
	}
	err = g.Wait()
	c.invalidatePages(ctx, pages)
	if err != nil {
		spinner.StopWithError("Push failed")
		return err
	}
	spinner.Stop()

	total := 0
	for i, p := range pages {
		printSuccess("%s %s", p.ID, StyleDim.Render(fmt.Sprintf("(%d widgets)", counts[i])))
		total += counts[i]
	}
	prog.done(fmt.Sprintf("pushed %d pages, %d widgets", len(pages), total))
	return nil
}

// invalidatePages drops the cached widget lists of pages. A page that failed
// halfway is dropped too, since part of it may have been written.
func (c *CLI) invalidatePages(ctx context.Context, pages []*page.Page) {
	ch, err := c.newCache(ctx, false)
	if err != nil {
		c.Logger.Warn("page cache unavailable, cached pages may be stale", "err", err)
		return
	}
	defer ch.Close()

	keyer := c.newKeyer()
	for _, p := range pages {
		if err := ch.Delete(ctx, keyer.PageKey(p.ID)); err != nil {
			c.Logger.Warn("page cache invalidation failed", "page", p.ID, "err", err)
		}
	}
}

func pushPage(ctx context.Context, st store.Store, p *page.Page) (int, error) {
	for i, r := range p.Widgets {
		if err := st.SaveWidget(ctx, p.ID, r); err != nil {
			return i, fmt.Errorf("push %s/%s: %w", p.ID, r.ID, err)
		}
	}
	return len(p.Widgets), nil
}

// =============================================================================
// pull
// =============================================================================

// pullCommand downloads pages from the store into page files.
func (c *CLI) pullCommand() *cobra.Command {
	var dir, format string

	cmd := &cobra.Command{
		Use:   "pull PAGE_ID...",
		Short: "Download pages from the store",
		Long: `Download pages from the configured store into page files named after the
page id. Stored positions are written verbatim, including legacy encodings.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPull(cmd.Context(), args, dir, page.Format(format))
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "output directory")
	cmd.Flags().StringVar(&format, "format", string(page.FormatJSON), "file format: json, yaml")
	_ = cmd.RegisterFlagCompletionFunc("format", completeStrings([]page.Format{page.FormatJSON, page.FormatYAML}))

	return cmd
}

func (c *CLI) runPull(ctx context.Context, ids []string, dir string, format page.Format) error {
	if format != page.FormatJSON && format != page.FormatYAML {
		return lgerrors.New(lgerrors.ErrCodeInvalidInput, "unknown format %q (must be json or yaml)", format)
	}
	for _, id := range ids {
		if err := lgerrors.ValidatePageID(id); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	prog := newProgress(c.Logger)
	files := make([]string, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			records, err := st.ListWidgets(gctx, id)
			if err != nil {
				return fmt.Errorf("pull %s: %w", id, err)
			}
			files[i] = filepath.Join(dir, id+"."+string(format))
			return page.Write(files[i], &page.Page{ID: id, Widgets: records})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, f := range files {
		printFile(f)
	}
	prog.done(fmt.Sprintf("pulled %d pages", len(ids)))
	if len(files) == 1 {
		printNextStep("Preview it", "linkgrid render "+files[0])
	}
	return nil
}
