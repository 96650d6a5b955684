package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/linkgrid/pkg/editor"
	"github.com/matzehuels/linkgrid/pkg/grid"
	"github.com/matzehuels/linkgrid/pkg/page"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 200 * time.Millisecond

// checkReport is the outcome of checking one page file.
type checkReport struct {
	Path       string
	Widgets    int
	Violations []grid.Violation
	Issues     []editor.Issue
	Arranged   bool
}

// checkCommand validates page files.
func (c *CLI) checkCommand() *cobra.Command {
	var view string
	var watch bool

	cmd := &cobra.Command{
		Use:   "check PAGE_FILE...",
		Short: "Report overlapping and out-of-bounds widgets",
		Long: `Check page files for widgets that overlap (closer than the margin) or
cross the canvas edge. Both views are checked unless --view is given.
Stored positions that could not be read are reported as warnings.

With --watch the files are checked again whenever they change.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			views := widget.Views
			if view != "" {
				v, err := widget.ParseViewMode(view)
				if err != nil {
					return err
				}
				views = []widget.ViewMode{v}
			}

			failed := 0
			for _, path := range args {
				r, err := c.checkFile(path, views)
				if err != nil {
					return err
				}
				printCheckReport(r)
				if len(r.Violations) > 0 {
					failed++
				}
			}
			if watch {
				return c.watchCheck(cmd.Context(), args, views)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d pages have layout violations", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&view, "view", "", "only check one view: desktop (or web), mobile")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-check files when they change")
	_ = cmd.RegisterFlagCompletionFunc("view", completeStrings(widget.Views))

	return cmd
}

// checkFile reads and validates one page file.
func (c *CLI) checkFile(path string, views []widget.ViewMode) (checkReport, error) {
	p, err := page.Read(path)
	if err != nil {
		return checkReport{}, err
	}
	lo := c.cfg.GridOptions()
	loaded := editor.Materialize(p.Widgets, lo)

	r := checkReport{Path: path, Widgets: len(loaded.Widgets), Issues: loaded.Issues, Arranged: loaded.Arranged}
	for _, v := range views {
		r.Violations = append(r.Violations, lo.Validate(loaded.Widgets, v, 0)...)
	}
	return r, nil
}

func printCheckReport(r checkReport) {
	if len(r.Violations) == 0 {
		printSuccess("%s", r.Path)
	} else {
		printError("%s", r.Path)
	}
	printStats(r.Widgets, len(r.Violations), false)

	printIssues(r.Issues)
	if r.Arranged {
		printWarning("duplicate mobile positions; run %s", styleCommand.Render("linkgrid arrange "+r.Path))
	}
	if len(r.Violations) > 0 {
		fmt.Fprintln(out, violationTable(r.Violations))
	}
}

// watchCheck re-checks files as they change until ctx is cancelled. The
// parent directories are watched so that editors which save by rename are
// still seen.
func (c *CLI) watchCheck(ctx context.Context, paths []string, views []widget.ViewMode) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	targets := make(map[string]string, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = p
		dir := filepath.Dir(abs)
		if !dirs[dir] {
			if err := w.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			dirs[dir] = true
		}
	}

	printNewline()
	printInfo("Watching %d file(s) for changes, ctrl+c to stop", len(targets))

	changed := make(map[string]bool)
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			abs, _ := filepath.Abs(ev.Name)
			if _, ok := targets[abs]; !ok {
				continue
			}
			changed[abs] = true
			debounce = time.After(watchDebounce)
		case <-debounce:
			debounce = nil
			for _, abs := range sortedKeys(changed) {
				r, err := c.checkFile(targets[abs], views)
				if err != nil {
					printError("%s: %v", targets[abs], err)
					continue
				}
				printCheckReport(r)
			}
			clear(changed)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.Logger.Warn("watcher error", "err", err)
		}
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
