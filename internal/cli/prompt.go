package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	lgerrors "github.com/matzehuels/linkgrid/pkg/errors"
	"github.com/matzehuels/linkgrid/pkg/grid"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

// isTerminal reports whether stdin is interactive.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// promptWidget asks for whichever of type and size is still empty.
func promptWidget(lo grid.Options, typ, size *string) error {
	var fields []huh.Field
	if *typ == "" {
		opts := make([]huh.Option[string], 0, len(widget.Types))
		for _, t := range widget.Types {
			opts = append(opts, huh.NewOption(string(t), string(t)))
		}
		fields = append(fields, huh.NewSelect[string]().
			Title("Widget type").
			Options(opts...).
			Value(typ))
	}
	if *size == "" {
		opts := make([]huh.Option[string], 0, len(widget.Sizes))
		for _, s := range widget.Sizes {
			opts = append(opts, huh.NewOption(sizeLabel(lo, s), string(s)))
		}
		fields = append(fields, huh.NewSelect[string]().
			Title("Size").
			Description("Desktop footprint; every widget is 128×128 on mobile").
			Options(opts...).
			Value(size))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

func sizeLabel(lo grid.Options, s widget.Size) string {
	e := lo.Dimensions(s, widget.Desktop)
	return fmt.Sprintf("%-14s %g×%g", s, e.Width, e.Height)
}

// requireWidgetFlags fills missing --type/--size interactively, or fails
// when there is no terminal to ask on.
func requireWidgetFlags(lo grid.Options, typ, size *string) error {
	if *typ != "" && *size != "" {
		return nil
	}
	if !isTerminal() {
		return lgerrors.New(lgerrors.ErrCodeInvalidInput, "--type and --size are required when not running in a terminal")
	}
	return promptWidget(lo, typ, size)
}
