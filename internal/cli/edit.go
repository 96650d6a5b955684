package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/linkgrid/pkg/editor"
	lgerrors "github.com/matzehuels/linkgrid/pkg/errors"
	"github.com/matzehuels/linkgrid/pkg/page"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

// =============================================================================
// Command
// =============================================================================

// editCommand opens the interactive layout editor.
func (c *CLI) editCommand() *cobra.Command {
	var pageID string

	cmd := &cobra.Command{
		Use:   "edit [PAGE_FILE]",
		Short: "Rearrange widgets interactively",
		Long: `Open a page in the terminal editor. Pick a widget, grab it with enter and
move it with the arrow keys; the outline shows where it would land. Enter
drops it, esc puts it back.

With --page the page is read from the store and every change is saved as
it happens. Otherwise the page file is written when you press s.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal() {
				return lgerrors.New(lgerrors.ErrCodeInvalidInput, "edit needs an interactive terminal")
			}
			switch {
			case pageID != "" && len(args) == 0:
				return c.runEditStore(cmd.Context(), pageID)
			case pageID == "" && len(args) == 1:
				return c.runEditFile(cmd.Context(), args[0])
			}
			return lgerrors.New(lgerrors.ErrCodeInvalidInput, "give either a page file or --page")
		},
	}

	cmd.Flags().StringVarP(&pageID, "page", "p", "", "edit a page in the store instead of a file")
	return cmd
}

// quietLogger keeps log lines from tearing the full-screen UI. Errors reach
// the user through the status line instead.
var quietLogger = log.New(io.Discard)

func (c *CLI) runEditFile(ctx context.Context, path string) error {
	p, err := page.Read(path)
	if err != nil {
		return err
	}
	ed, _, err := editor.Load(ctx, p, p.ID,
		editor.WithLogger(quietLogger),
		editor.WithOptions(c.cfg.GridOptions()),
	)
	if err != nil {
		return err
	}
	m := newEditModel(ctx, ed, func(e *editor.Editor) error { return savePage(path, e) })
	return runEditProgram(m)
}

func (c *CLI) runEditStore(ctx context.Context, pageID string) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	ed, _, err := editor.Load(ctx, st, pageID,
		editor.WithStore(st),
		editor.WithLogger(quietLogger),
		editor.WithOptions(c.cfg.GridOptions()),
	)
	if err != nil {
		return err
	}
	if _, err := ed.Flush(ctx); err != nil {
		printWarning("%v", err)
	}
	return runEditProgram(newEditModel(ctx, ed, nil))
}

func runEditProgram(m editModel) error {
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(editModel); ok && fm.dirty {
		printWarning("Quit with unsaved changes")
	}
	return nil
}

// =============================================================================
// Key bindings
// =============================================================================

type editKeyMap struct {
	up      key.Binding
	down    key.Binding
	left    key.Binding
	right   key.Binding
	grab    key.Binding
	cancel  key.Binding
	view    key.Binding
	size    key.Binding
	remove  key.Binding
	arrange key.Binding
	save    key.Binding
	help    key.Binding
	quit    key.Binding
}

func newEditKeyMap() editKeyMap {
	return editKeyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "left"),
		),
		right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "right"),
		),
		grab: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("⏎", "grab/drop"),
		),
		cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel drag"),
		),
		view: key.NewBinding(
			key.WithKeys("v", "tab"),
			key.WithHelp("v", "desktop/mobile"),
		),
		size: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "next size"),
		),
		remove: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "delete"),
		),
		arrange: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "arrange mobile"),
		),
		save: key.NewBinding(
			key.WithKeys("s", "ctrl+s"),
			key.WithHelp("s", "save"),
		),
		help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k editKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.grab, k.view, k.save, k.help, k.quit}
}

func (k editKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.left, k.right},
		{k.grab, k.cancel, k.view},
		{k.size, k.remove, k.arrange},
		{k.save, k.help, k.quit},
	}
}

// =============================================================================
// Model
// =============================================================================

// editModel is the bubbletea model of the layout editor.
type editModel struct {
	ctx  context.Context
	ed   *editor.Editor
	save func(*editor.Editor) error // nil when the editor persists directly

	keys   editKeyMap
	help   help.Model
	cursor int
	target widget.Point
	status string
	err    error
	dirty  bool
}

func newEditModel(ctx context.Context, ed *editor.Editor, save func(*editor.Editor) error) editModel {
	return editModel{
		ctx:  ctx,
		ed:   ed,
		save: save,
		keys: newEditKeyMap(),
		help: help.New(),
	}
}

func (m editModel) Init() tea.Cmd {
	return nil
}

func (m editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case tea.KeyMsg:
		m.status, m.err = "", nil
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		if _, dragging := m.ed.Dragging(); dragging {
			return m.updateDrag(msg), nil
		}
		return m.updateSelect(msg), nil
	}
	return m, nil
}

// selected returns the widget under the cursor.
func (m editModel) selected() (widget.Widget, bool) {
	ws := m.ed.Widgets()
	if m.cursor < 0 || m.cursor >= len(ws) {
		return widget.Widget{}, false
	}
	return ws[m.cursor], true
}

func (m editModel) updateSelect(msg tea.KeyMsg) editModel {
	switch {
	case key.Matches(msg, m.keys.up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.down):
		if m.cursor < m.ed.Len()-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.grab):
		w, ok := m.selected()
		if !ok {
			return m
		}
		if m.err = m.ed.BeginDrag(w.ID); m.err != nil {
			return m
		}
		m.target = w.Position(m.ed.View())
		_, m.err = m.ed.Preview(m.target)
	case key.Matches(msg, m.keys.view):
		m.status = fmt.Sprintf("%s view", m.ed.Toggle())
	case key.Matches(msg, m.keys.size):
		w, ok := m.selected()
		if !ok {
			return m
		}
		next := nextSize(w.Size)
		_, m.err = m.ed.Resize(m.ctx, w.ID, next)
		m.dirty = m.save != nil
		m.status = fmt.Sprintf("%s is now %s", label(w.ID), next)
	case key.Matches(msg, m.keys.remove):
		w, ok := m.selected()
		if !ok {
			return m
		}
		m.err = m.ed.Delete(m.ctx, w.ID)
		if m.cursor >= m.ed.Len() && m.cursor > 0 {
			m.cursor--
		}
		m.dirty = m.save != nil
		m.status = "deleted " + label(w.ID)
	case key.Matches(msg, m.keys.arrange):
		var moved bool
		moved, m.err = m.ed.Arrange(m.ctx)
		if moved {
			m.dirty = m.save != nil
			m.status = "mobile layout arranged"
		} else if m.err == nil {
			m.status = "mobile layout already arranged"
		}
	case key.Matches(msg, m.keys.save):
		if m.save == nil {
			m.status = "changes are saved as you go"
			return m
		}
		if m.err = m.save(m.ed); m.err == nil {
			m.dirty = false
			m.status = "saved"
		}
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m
}

func (m editModel) updateDrag(msg tea.KeyMsg) editModel {
	step := m.ed.Options().GridUnit
	switch {
	case key.Matches(msg, m.keys.up):
		m.target.Y = math.Max(0, m.target.Y-step)
	case key.Matches(msg, m.keys.down):
		m.target.Y += step
	case key.Matches(msg, m.keys.left):
		m.target.X = math.Max(0, m.target.X-step)
	case key.Matches(msg, m.keys.right):
		m.target.X += step
	case key.Matches(msg, m.keys.grab):
		id, _ := m.ed.Dragging()
		var p widget.Point
		p, m.err = m.ed.Drop(m.ctx, m.target)
		m.dirty = m.save != nil
		m.status = fmt.Sprintf("placed %s at %s", label(id), p)
		return m
	case key.Matches(msg, m.keys.cancel):
		m.ed.CancelDrag()
		m.status = "drag cancelled"
		return m
	case key.Matches(msg, m.keys.view):
		m.status = fmt.Sprintf("%s view, drag cancelled", m.ed.Toggle())
		return m
	default:
		return m
	}
	_, m.err = m.ed.Preview(m.target)
	return m
}

// nextSize cycles through the size tags in their declared order.
func nextSize(s widget.Size) widget.Size {
	for i, k := range widget.Sizes {
		if k == s {
			return widget.Sizes[(i+1)%len(widget.Sizes)]
		}
	}
	return widget.Sizes[0]
}

func label(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// =============================================================================
// View
// =============================================================================

var (
	mapStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	previewStyle = lipgloss.NewStyle().Foreground(colorYellow)
	errorStyle   = lipgloss.NewStyle().Foreground(colorRed)
)

// maxMapRows keeps tall pages from pushing the help off screen.
const maxMapRows = 30

func (m editModel) View() string {
	var b strings.Builder

	title := fmt.Sprintf("%s · %s view", m.ed.PageID(), m.ed.View())
	if m.dirty {
		title += " *"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		mapStyle.Render(m.minimap()), "  ", m.widgetList()))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(iconError + " " + m.err.Error()))
	case m.status != "":
		b.WriteString(StyleDim.Render(iconInfo + " " + m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m editModel) widgetList() string {
	var b strings.Builder
	v := m.ed.View()
	for i, w := range m.ed.Widgets() {
		cursor := "  "
		style := listNormalStyle
		if i == m.cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}
		line := fmt.Sprintf("%s%c %-8s %-13s %s", cursor, cellRune(i), label(w.ID), w.Size, w.Position(v))
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	if p, ok := m.ed.PreviewPoint(); ok {
		b.WriteString(previewStyle.Render(fmt.Sprintf("\n  → %s", p)))
	}
	return b.String()
}

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
)

// minimap draws the canvas with one column per grid unit and one row per
// two grid units, which keeps boxes roughly square in a terminal.
func (m editModel) minimap() string {
	lo := m.ed.Options()
	v := m.ed.View()
	ws := m.ed.Widgets()
	colW, rowH := lo.GridUnit, 2*lo.GridUnit

	cols := int(math.Ceil(lo.CanvasWidth(v) / colW))
	height := 0.0
	for _, w := range ws {
		height = math.Max(height, lo.Bounds(w, v).Bottom+lo.Padding)
	}
	rows := min(max(int(math.Ceil(height/rowH)), 6), maxMapRows)

	cells := make([][]rune, rows)
	for r := range cells {
		cells[r] = []rune(strings.Repeat(" ", cols))
	}
	fill := func(left, top, right, bottom float64, ch rune) {
		for r := int(top / rowH); r < int(math.Ceil(bottom/rowH)) && r < rows; r++ {
			for c := int(left / colW); c < int(math.Ceil(right/colW)) && c < cols; c++ {
				if r >= 0 && c >= 0 {
					cells[r][c] = ch
				}
			}
		}
	}

	for i, w := range ws {
		b := lo.Bounds(w, v)
		ch := cellRune(i)
		if i == m.cursor {
			ch = '█'
		}
		fill(b.Left, b.Top, b.Right, b.Bottom, ch)
	}
	if id, ok := m.ed.Dragging(); ok {
		if p, shown := m.ed.PreviewPoint(); shown {
			if w, found := m.ed.Widget(id); found {
				b := lo.Bounds(w.WithPosition(v, p), v)
				fill(b.Left, b.Top, b.Right, b.Bottom, '░')
			}
		}
	}

	lines := make([]string, rows)
	for r, row := range cells {
		lines[r] = string(row)
	}
	return strings.Join(lines, "\n")
}

func cellRune(i int) rune {
	return rune('a' + i%26)
}
