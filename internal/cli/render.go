package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkgrid/pkg/editor"
	"github.com/matzehuels/linkgrid/pkg/page"
	"github.com/matzehuels/linkgrid/pkg/preview"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output  string
	view    string
	grid    bool
	labels  bool
	noCache bool
}

// renderCommand draws a page file as SVG.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{labels: true}

	cmd := &cobra.Command{
		Use:   "render PAGE_FILE",
		Short: "Draw a page layout as SVG",
		Long: `Draw the widgets of a page file as an SVG image for one view. Widgets that
overlap or cross the canvas edge are outlined in red.

Rendered previews are cached by layout; use --no-cache to force a redraw.`,
		Example: `  linkgrid render page.json
  linkgrid render page.yaml --view mobile --grid -o mobile.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: PAGE_FILE with .svg, or the view name appended for mobile)")
	addViewFlag(cmd, &opts.view)
	cmd.Flags().BoolVar(&opts.grid, "grid", false, "draw the snapping grid")
	cmd.Flags().BoolVar(&opts.labels, "labels", true, "label widgets with id, type and size")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the preview cache")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, path string, opts renderOpts) error {
	v, err := widget.ParseViewMode(opts.view)
	if err != nil {
		return err
	}
	p, err := page.Read(path)
	if err != nil {
		return err
	}
	lo := c.cfg.GridOptions()
	loaded := editor.Materialize(p.Widgets, lo)
	printIssues(loaded.Issues)

	ch, err := c.newCache(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer ch.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering "+string(v)+" preview...")
	spinner.Start()

	runner := preview.NewRunner(ch, c.newKeyer(), c.Logger)
	data, hit, err := runner.Render(ctx, loaded.Widgets, preview.Options{
		View:     v,
		Labels:   opts.labels,
		ShowGrid: opts.grid,
		Layout:   lo,
	})
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	out := opts.output
	if out == "" {
		out = defaultSVGPath(path, v)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}

	violations := len(lo.Validate(loaded.Widgets, v, 0))
	printSuccess("Rendered %s", p.ID)
	printStats(len(loaded.Widgets), violations, hit)
	printFile(out)
	return nil
}

// defaultSVGPath derives the output file from the page file name.
func defaultSVGPath(path string, v widget.ViewMode) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if v == widget.Mobile {
		base += "." + string(v)
	}
	return base + ".svg"
}
