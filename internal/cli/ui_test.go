package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/matzehuels/linkgrid/pkg/editor"
	"github.com/matzehuels/linkgrid/pkg/grid"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

// captureOutput redirects status output to a buffer for the rest of the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := out
	out = &buf
	t.Cleanup(func() { out = prev })
	return &buf
}

func TestPrintStats(t *testing.T) {
	tests := []struct {
		name       string
		widgets    int
		violations int
		cached     bool
		want       []string
		notWant    []string
	}{
		{"clean", 4, 0, false, []string{"4 widgets", "fresh"}, []string{"violation"}},
		{"one violation", 1, 1, true, []string{"1 widget", "1 violation", "cached"}, []string{"widgets"}},
		{"several", 3, 2, false, []string{"3 widgets", "2 violations"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureOutput(t)
			printStats(tt.widgets, tt.violations, tt.cached)
			got := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output %q missing %q", got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("output %q should not contain %q", got, w)
				}
			}
		})
	}
}

func TestPrintPlacement(t *testing.T) {
	buf := captureOutput(t)
	p := widget.Point{X: 20, Y: 20}
	printPlacement("Placed", "a", widget.Desktop, p, p)
	if strings.Contains(buf.String(), "requested") {
		t.Errorf("exact placement should not mention the request: %q", buf.String())
	}

	buf.Reset()
	printPlacement("Placed", "a", widget.Desktop, p, widget.Point{X: 200, Y: 20})
	if !strings.Contains(buf.String(), "(200, 20)") || !strings.Contains(buf.String(), "requested (20, 20)") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrintIssues(t *testing.T) {
	buf := captureOutput(t)
	printIssues([]editor.Issue{{WidgetID: "reel", Field: "web_position", Err: errors.New("bad json")}})
	if got := buf.String(); !strings.Contains(got, "reel web_position recovered: bad json") {
		t.Errorf("output = %q", got)
	}
}

func TestViolationTable(t *testing.T) {
	got := violationTable([]grid.Violation{
		{Kind: grid.ViolationOverlap, View: widget.Desktop, A: "a", B: "b"},
		{Kind: grid.ViolationBounds, View: widget.Mobile, A: "c"},
	})
	for _, want := range []string{"Problem", "overlap", "out-of-bounds", "canvas edge", "mobile"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
}
