package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"todo/internal/todo"
)

// Service is what the TUI needs from the to-do service.
type Service interface {
	SelectedTab() todo.Category
	SelectTab(ctx context.Context, c todo.Category) error
	AddItem(ctx context.Context, text string, c todo.Category) (todo.ID, error)
	RenameItem(ctx context.Context, id todo.ID, text string) error
	ToggleStatus(ctx context.Context, id todo.ID) (todo.Status, error)
	DeleteItem(ctx context.Context, id todo.ID) error
	Item(id todo.ID) (todo.Item, bool)
	ListByCategory(c todo.Category) iter.Seq[todo.Item]
	Count(c todo.Category) (total, done int)
}

type Input struct {
	Service Service
	// Confirm gates delete and toggle behind a y/n modal.
	Confirm bool
}

func Run(ctx context.Context, in Input) error {
	m := newModel(ctx, in)
	// Mouse reporting keeps the terminal from scrolling the alternate screen.
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type action int

const (
	actionToggle action = iota
	actionDelete
)

// pending is an operation waiting for the user's y/n.
type pending struct {
	action action
	id     todo.ID
	text   string
}

type model struct {
	ctx     context.Context
	svc     Service
	confirm bool

	tab todo.Category
	// editing is the item whose text the input currently holds; empty when
	// the input adds a new item.
	editing todo.ID
	pending *pending
	status  string
	warn    bool

	width  int
	height int

	input textinput.Model
	items list.Model

	styles styles
}

const (
	outerMarginLeft  = 1
	outerMarginRight = 2
	minListHeight    = 3
)

// Original palette.
var (
	colorBg     = lipgloss.Color("#000000")
	colorGrey   = lipgloss.Color("#3A3D40")
	colorItemBg = lipgloss.Color("#5C5C60")
	colorText   = lipgloss.Color("#FFFFFF")
	colorMuted  = lipgloss.Color("245")
	colorAccent = lipgloss.Color("205")
	colorWarn   = lipgloss.Color("214")
)

type styles struct {
	tabActive lipgloss.Style
	tabIdle   lipgloss.Style
	inputBox  lipgloss.Style
	editBox   lipgloss.Style
	item      lipgloss.Style
	itemDone  lipgloss.Style
	muted     lipgloss.Style
	warn      lipgloss.Style
	modal     lipgloss.Style
}

func newStyles() styles {
	item := lipgloss.NewStyle().Background(colorItemBg).Foreground(colorText).Padding(0, 1)
	return styles{
		tabActive: lipgloss.NewStyle().Bold(true).Foreground(colorText).MarginRight(3),
		tabIdle:   lipgloss.NewStyle().Bold(true).Foreground(colorGrey).MarginRight(3),
		inputBox:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorGrey).Padding(0, 1),
		editBox:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(0, 1),
		item:      item,
		itemDone:  item.Foreground(colorMuted).Strikethrough(true),
		muted:     lipgloss.NewStyle().Foreground(colorMuted),
		warn:      lipgloss.NewStyle().Foreground(colorWarn),
		modal:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Background(colorBg).Padding(1, 3),
	}
}

func newModel(ctx context.Context, in Input) model {
	st := newStyles()

	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 200
	input.Focus()

	items := list.New(nil, itemDelegate{styles: &st}, 0, 0)
	items.SetShowStatusBar(false)
	items.SetFilteringEnabled(false)
	items.SetShowHelp(false)
	items.SetShowTitle(false)
	items.DisableQuitKeybindings()

	m := model{
		ctx:     ctx,
		svc:     in.Service,
		confirm: in.Confirm,
		tab:     in.Service.SelectedTab(),
		input:   input,
		items:   items,
		styles:  st,
	}
	m.setPlaceholder()
	m.reloadItems()
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case tea.MouseMsg:
		// Keyboard only.
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.pending != nil {
			return m.updatePending(msg), nil
		}
		if next, handled := m.handleKey(msg); handled {
			return next, nil
		}
	}

	var cmd tea.Cmd
	// Route navigation keys to the list; everything else to the input.
	if km, ok := msg.(tea.KeyMsg); ok && isNavKey(km) {
		m.items, cmd = m.items.Update(msg)
		return m, cmd
	}
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleKey(k tea.KeyMsg) (model, bool) {
	switch k.String() {
	case "tab", "shift+tab":
		if m.editing != "" {
			return m, true
		}
		m.switchTab(nextCategory(m.tab))
		return m, true
	case "enter":
		m.submit()
		return m, true
	case "esc":
		m.cancelEdit()
		return m, true
	case "ctrl+e":
		m.startEdit()
		return m, true
	case "ctrl+x":
		m.request(actionToggle)
		return m, true
	case "ctrl+d":
		m.request(actionDelete)
		return m, true
	}
	return m, false
}

func (m model) updatePending(k tea.KeyMsg) model {
	switch k.String() {
	case "y", "Y", "enter":
		p := *m.pending
		m.pending = nil
		m.perform(p)
	case "n", "N", "esc":
		m.pending = nil
		m.setStatus("cancelled", false)
	}
	return m
}

func isNavKey(k tea.KeyMsg) bool {
	switch k.String() {
	case "up", "down", "pgup", "pgdown", "home", "end":
		return true
	default:
		return false
	}
}

func nextCategory(c todo.Category) todo.Category {
	if c == todo.Work {
		return todo.Travel
	}
	return todo.Work
}

func (m *model) switchTab(c todo.Category) {
	m.tab = c
	m.report(m.svc.SelectTab(m.ctx, c), "")
	m.setPlaceholder()
	m.reloadItems()
	m.items.Select(0)
}

func (m *model) setPlaceholder() {
	if m.tab == todo.Travel {
		m.input.Placeholder = "Where do you want to go?"
		return
	}
	m.input.Placeholder = "Add a To Do"
}

func (m *model) submit() {
	text := m.input.Value()
	if m.editing != "" {
		id := m.editing
		err := m.svc.RenameItem(m.ctx, id, text)
		if errors.Is(err, todo.ErrEmptyText) {
			// Keep edit mode; the item text is untouched.
			m.setStatus("text is empty", true)
			return
		}
		m.editing = ""
		m.input.Reset()
		m.report(err, "renamed")
		m.reloadItems()
		return
	}

	if strings.TrimSpace(text) == "" {
		return
	}
	_, err := m.svc.AddItem(m.ctx, text, m.tab)
	m.input.Reset()
	m.report(err, "added")
	m.reloadItems()
	if n := len(m.items.Items()); n > 0 {
		m.items.Select(n - 1)
	}
}

func (m *model) startEdit() {
	it, ok := m.selectedItem()
	if !ok {
		return
	}
	m.editing = it.ID
	m.input.SetValue(it.Text)
	m.input.CursorEnd()
	m.setStatus("editing; enter to save, esc to cancel", false)
}

func (m *model) cancelEdit() {
	if m.editing == "" && m.input.Value() == "" {
		return
	}
	m.editing = ""
	m.input.Reset()
	m.setStatus("", false)
}

func (m *model) request(a action) {
	if m.editing != "" {
		return
	}
	it, ok := m.selectedItem()
	if !ok {
		return
	}
	p := pending{action: a, id: it.ID, text: it.Text}
	if !m.confirm {
		m.perform(p)
		return
	}
	m.pending = &p
}

func (m *model) perform(p pending) {
	switch p.action {
	case actionToggle:
		st, err := m.svc.ToggleStatus(m.ctx, p.id)
		m.report(err, "marked "+st.String())
	case actionDelete:
		idx := m.items.Index()
		m.report(m.svc.DeleteItem(m.ctx, p.id), "deleted")
		m.reloadItems()
		if n := len(m.items.Items()); idx >= n && n > 0 {
			idx = n - 1
		}
		m.items.Select(idx)
		return
	}
	m.reloadItems()
}

// report turns a service error into the status line.
func (m *model) report(err error, ok string) {
	switch {
	case err == nil:
		m.setStatus(ok, false)
	case todo.IsWarning(err):
		m.setStatus("saved for this session only: "+err.Error(), true)
	case errors.Is(err, todo.ErrNotFound):
		m.setStatus("item no longer exists", true)
	default:
		m.setStatus(err.Error(), true)
	}
}

func (m *model) setStatus(s string, warn bool) {
	m.status, m.warn = s, warn
}

func (m *model) reloadItems() {
	idx := m.items.Index()
	var entries []list.Item
	for it := range m.svc.ListByCategory(m.tab) {
		entries = append(entries, itemEntry{it})
	}
	m.items.SetItems(entries)
	if idx < len(entries) {
		m.items.Select(idx)
	}
}

func (m model) selectedItem() (todo.Item, bool) {
	sel := m.items.SelectedItem()
	if sel == nil {
		return todo.Item{}, false
	}
	e, ok := sel.(itemEntry)
	if !ok {
		return todo.Item{}, false
	}
	// Re-read so the caller acts on current state.
	return m.svc.Item(e.ID)
}

func (m *model) resize() {
	innerW := maxInt(20, m.width-outerMarginLeft-outerMarginRight)
	m.input.Width = maxInt(10, innerW-6)
	// header(1) + blank(1) + help(1) + input box(3) + blank(1) + status(1)
	listH := maxInt(minListHeight, m.height-8)
	m.items.SetSize(innerW, listH)
}

func (m model) View() string {
	if m.pending != nil {
		return m.modalView()
	}

	tabs := make([]string, 0, len(todo.Categories))
	for _, c := range todo.Categories {
		total, done := m.svc.Count(c)
		label := fmt.Sprintf("%s %d/%d", c.Label(), done, total)
		if c == m.tab {
			tabs = append(tabs, m.styles.tabActive.Render(label))
		} else {
			tabs = append(tabs, m.styles.tabIdle.Render(label))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	help := m.styles.muted.Render("tab: switch  enter: add/save  ctrl+e: edit  ctrl+x: done  ctrl+d: delete  esc: cancel  ctrl+c: quit")

	box := m.styles.inputBox
	if m.editing != "" {
		box = m.styles.editBox
	}
	inputW := maxInt(20, m.width-outerMarginLeft-outerMarginRight-2)
	inputView := box.Width(inputW).Render(m.input.View())

	var body string
	if len(m.items.Items()) == 0 {
		body = m.styles.muted.Render("nothing here yet")
	} else {
		body = m.items.View()
	}

	status := ""
	if m.status != "" {
		if m.warn {
			status = m.styles.warn.Render(m.status)
		} else {
			status = m.styles.muted.Render(m.status)
		}
	}

	out := header + "\n" + help + "\n" + inputView + "\n\n" + body + "\n" + status
	return strings.TrimRight(m.inset(out), "\n")
}

func (m model) modalView() string {
	p := m.pending
	q := "Delete"
	if p.action == actionToggle {
		it, _ := m.svc.Item(p.id)
		q = "Mark as complete"
		if it.Done() {
			q = "Mark as incomplete"
		}
	}
	text := ansi.Truncate(p.text, 40, "…")
	box := m.styles.modal.Render(fmt.Sprintf("%s %q?\n\n%s", q, text, m.styles.muted.Render("y: yes   n: no")))
	if m.width <= 0 || m.height <= 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m model) inset(s string) string {
	innerW := m.width - outerMarginLeft - outerMarginRight
	if innerW <= 0 {
		return s
	}

	lines := strings.Split(s, "\n")
	for i := range lines {
		// Pad every row to full width so a shorter frame fully overwrites
		// the previous one.
		trimmed := ansi.Truncate(lines[i], innerW, "")
		padInner := innerW - ansi.StringWidth(trimmed)
		if padInner < 0 {
			padInner = 0
		}
		lines[i] = strings.Repeat(" ", outerMarginLeft) + trimmed + strings.Repeat(" ", padInner) + strings.Repeat(" ", outerMarginRight)
	}
	return strings.Join(lines, "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

type itemEntry struct{ todo.Item }

func (e itemEntry) Title() string       { return e.Text }
func (e itemEntry) Description() string { return e.Status.String() }
func (e itemEntry) FilterValue() string { return e.Text }

// itemDelegate draws one item per row on the item background.
type itemDelegate struct {
	styles *styles
}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 1 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	e, ok := li.(itemEntry)
	if !ok {
		return
	}
	width := maxInt(10, m.Width()-2)
	mark := "[ ] "
	st := d.styles.item
	if e.Done() {
		mark = "[x] "
		st = d.styles.itemDone
	}
	cursor := "  "
	if index == m.Index() {
		cursor = "> "
		st = st.Bold(true).Foreground(colorAccent)
	}
	text := ansi.Truncate(cursor+mark+e.Text, width-2, "…")
	fmt.Fprint(w, st.Width(width).Render(text))
}
