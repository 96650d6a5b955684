package cli

import (
	"context"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkgrid/pkg/editor"
	lgerrors "github.com/matzehuels/linkgrid/pkg/errors"
	"github.com/matzehuels/linkgrid/pkg/page"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

// =============================================================================
// add
// =============================================================================

// addCommand creates a widget in a page file at the default anchor.
func (c *CLI) addCommand() *cobra.Command {
	var typ, size string

	cmd := &cobra.Command{
		Use:   "add PAGE_FILE",
		Short: "Add a widget to a page file",
		Long: `Add a widget to a page file. The widget is placed in both views at the
first free spot near the default anchor. Missing --type or --size are asked
for interactively when running in a terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWidgetFlags(c.cfg.GridOptions(), &typ, &size); err != nil {
				return err
			}
			return c.runAdd(cmd.Context(), args[0], typ, size)
		},
	}

	cmd.Flags().StringVarP(&typ, "type", "t", "", "widget type: social, link, image, text, voice, product, app, media")
	cmd.Flags().StringVarP(&size, "size", "s", "", "widget size: thin, small-square, medium-square, large-square, wide, tall")
	_ = cmd.RegisterFlagCompletionFunc("type", completeStrings(widget.Types))
	_ = cmd.RegisterFlagCompletionFunc("size", completeStrings(widget.Sizes))

	return cmd
}

func (c *CLI) runAdd(ctx context.Context, path, typ, size string) error {
	t, err := widget.ParseType(typ)
	if err != nil {
		return err
	}
	s, err := widget.ParseSize(size)
	if err != nil {
		return err
	}
	e, _, err := c.openPage(ctx, path)
	if err != nil {
		return err
	}
	w, err := e.Add(ctx, t, s)
	if err != nil {
		return err
	}
	if err := savePage(path, e); err != nil {
		return err
	}
	printSuccess("Added %s %s widget %s", w.Size, w.Type, StyleHighlight.Render(w.ID))
	printDetail("desktop %s · mobile %s", w.Position(widget.Desktop), w.Position(widget.Mobile))
	printFile(path)
	return nil
}

// =============================================================================
// place
// =============================================================================

// placeCommand drops a widget at a target position.
func (c *CLI) placeCommand() *cobra.Command {
	var view string

	cmd := &cobra.Command{
		Use:   "place PAGE_FILE WIDGET_ID X Y",
		Short: "Move a widget to the nearest free position",
		Long: `Move a widget as if it were dropped at (X, Y). The target is snapped to
the grid and kept inside the canvas; if the widget would overlap another one
it goes to the nearest free position instead.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := parseCoord(args[2])
			if err != nil {
				return err
			}
			y, err := parseCoord(args[3])
			if err != nil {
				return err
			}
			return c.runPlace(cmd.Context(), args[0], args[1], view, widget.Point{X: x, Y: y})
		},
	}

	addViewFlag(cmd, &view)
	return cmd
}

func (c *CLI) runPlace(ctx context.Context, path, id, view string, target widget.Point) error {
	v, err := widget.ParseViewMode(view)
	if err != nil {
		return err
	}
	e, _, err := c.openPage(ctx, path)
	if err != nil {
		return err
	}
	if err := e.SetView(v); err != nil {
		return err
	}
	p, err := e.Move(ctx, id, target)
	if err != nil {
		return err
	}
	if err := savePage(path, e); err != nil {
		return err
	}
	printPlacement("Placed", id, v, target, p)
	return nil
}

// =============================================================================
// resize
// =============================================================================

// resizeCommand changes a widget's size tag.
func (c *CLI) resizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resize PAGE_FILE WIDGET_ID SIZE",
		Short: "Change a widget's size",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResize(cmd.Context(), args[0], args[1], args[2])
		},
	}
	return cmd
}

func (c *CLI) runResize(ctx context.Context, path, id, size string) error {
	s, err := widget.ParseSize(size)
	if err != nil {
		return err
	}
	e, _, err := c.openPage(ctx, path)
	if err != nil {
		return err
	}
	before, _ := e.Widget(id)
	w, err := e.Resize(ctx, id, s)
	if err != nil {
		return err
	}
	if err := savePage(path, e); err != nil {
		return err
	}
	printSuccess("Resized %s to %s", id, s)
	if at := w.Position(widget.Desktop); at != before.Position(widget.Desktop) {
		printDetail("moved to %s to stay clear of its neighbours", at)
	}
	return nil
}

// =============================================================================
// remove
// =============================================================================

// removeCommand deletes a widget.
func (c *CLI) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove PAGE_FILE WIDGET_ID",
		Aliases: []string{"rm"},
		Short:   "Remove a widget from a page file",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := c.openPage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := e.Delete(cmd.Context(), args[1]); err != nil {
				return err
			}
			if err := savePage(args[0], e); err != nil {
				return err
			}
			printSuccess("Removed %s", args[1])
			return nil
		},
	}
}

// =============================================================================
// arrange
// =============================================================================

// arrangeCommand normalizes mobile positions, in a page file or in the store.
func (c *CLI) arrangeCommand() *cobra.Command {
	var pageID string

	cmd := &cobra.Command{
		Use:   "arrange [PAGE_FILE]",
		Short: "Normalize mobile positions onto the two-column grid",
		Long: `Run the mobile auto-arranger. If any two widgets share a mobile position,
every widget is reassigned to the two-column mobile grid in list order.
Otherwise nothing changes.

With --page the page is read from and written back to the configured store,
including any positions that were computed because stored ones were missing
or unreadable.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case pageID != "" && len(args) == 0:
				return c.runArrangeStore(cmd.Context(), pageID)
			case pageID == "" && len(args) == 1:
				return c.runArrangeFile(cmd.Context(), args[0])
			}
			return lgerrors.New(lgerrors.ErrCodeInvalidInput, "give either a page file or --page")
		},
	}

	cmd.Flags().StringVarP(&pageID, "page", "p", "", "arrange a page in the configured store")
	return cmd
}

func (c *CLI) runArrangeFile(ctx context.Context, path string) error {
	p, err := page.Read(path)
	if err != nil {
		return err
	}
	loaded := editor.Materialize(p.Widgets, c.cfg.GridOptions())
	e := editor.New(p.ID, loaded.Widgets, editor.WithLogger(c.Logger), editor.WithOptions(c.cfg.GridOptions()))
	arranged, err := e.Arrange(ctx)
	if err != nil {
		return err
	}
	if !arranged && !loaded.Arranged {
		printInfo("Mobile layout already normalized")
		return nil
	}
	if err := savePage(path, e); err != nil {
		return err
	}
	printSuccess("Arranged %d widgets", e.Len())
	printFile(path)
	return nil
}

func (c *CLI) runArrangeStore(ctx context.Context, pageID string) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	e, loaded, err := editor.Load(ctx, st, pageID,
		editor.WithStore(st),
		editor.WithLogger(c.Logger),
		editor.WithOptions(c.cfg.GridOptions()),
	)
	if err != nil {
		return err
	}
	arranged, err := e.Arrange(ctx)
	if err != nil {
		return err
	}
	saved, err := e.Flush(ctx)
	if err != nil {
		return err
	}
	if !arranged && !loaded.Arranged && saved == 0 {
		printInfo("Mobile layout already normalized")
		return nil
	}
	printSuccess("Arranged %s", pageID)
	printDetail("%d positions saved", saved)
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

func addViewFlag(cmd *cobra.Command, view *string) {
	cmd.Flags().StringVar(view, "view", string(widget.Desktop), "view mode: desktop (or web), mobile")
	_ = cmd.RegisterFlagCompletionFunc("view", completeStrings(widget.Views))
}

func parseCoord(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, lgerrors.New(lgerrors.ErrCodeInvalidInput, "invalid coordinate %q", s)
	}
	return v, nil
}

// completeStrings turns a list of string-kinded values into a flag completer.
func completeStrings[T ~string](values []T) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = string(v)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}
