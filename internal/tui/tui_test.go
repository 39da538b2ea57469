package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/storage"
	"todo/internal/todo"
)

func newTestModel(t *testing.T, confirm bool) (model, *todo.Service) {
	t.Helper()
	svc := todo.NewService(storage.NewMemoryStore())
	require.NoError(t, svc.Initialize(context.Background()))
	m := newModel(context.Background(), Input{Service: svc, Confirm: confirm})
	m = send(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, svc
}

func send(m model, msgs ...tea.Msg) model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

func typeText(s string) tea.Msg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyEdit  = tea.KeyMsg{Type: tea.KeyCtrlE}
	keyDone  = tea.KeyMsg{Type: tea.KeyCtrlX}
	keyDel   = tea.KeyMsg{Type: tea.KeyCtrlD}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
)

func items(svc *todo.Service, c todo.Category) []todo.Item {
	var out []todo.Item
	for it := range svc.ListByCategory(c) {
		out = append(out, it)
	}
	return out
}

func TestModel_AddsToSelectedTab(t *testing.T) {
	m, svc := newTestModel(t, true)

	m = send(m, typeText("Buy milk"), keyEnter)
	require.Len(t, items(svc, todo.Work), 1)
	assert.Equal(t, "Buy milk", items(svc, todo.Work)[0].Text)
	assert.Empty(t, m.input.Value())

	m = send(m, keyTab)
	assert.Equal(t, todo.Travel, svc.SelectedTab())
	assert.Equal(t, "Where do you want to go?", m.input.Placeholder)

	m = send(m, typeText("Lisbon"), keyEnter)
	require.Len(t, items(svc, todo.Travel), 1)
	assert.Len(t, items(svc, todo.Work), 1)
	assert.Len(t, m.items.Items(), 1)
}

func TestModel_EnterOnBlankInputDoesNothing(t *testing.T) {
	m, svc := newTestModel(t, true)
	send(m, typeText("   "), keyEnter)
	assert.Equal(t, 0, svc.Len())
}

func TestModel_DeleteNeedsConfirmation(t *testing.T) {
	m, svc := newTestModel(t, true)
	m = send(m, typeText("a"), keyEnter)

	m = send(m, keyDel)
	require.NotNil(t, m.pending)
	assert.Contains(t, m.View(), "Delete")

	m = send(m, typeText("n"))
	assert.Nil(t, m.pending)
	assert.Equal(t, 1, svc.Len())

	m = send(m, keyDel, typeText("y"))
	assert.Nil(t, m.pending)
	assert.Equal(t, 0, svc.Len())
	assert.Empty(t, m.items.Items())
}

func TestModel_ToggleNeedsConfirmation(t *testing.T) {
	m, svc := newTestModel(t, true)
	m = send(m, typeText("a"), keyEnter)
	id := items(svc, todo.Work)[0].ID

	m = send(m, keyDone)
	it, _ := svc.Item(id)
	assert.Equal(t, todo.Incomplete, it.Status, "no change before the answer")

	m = send(m, typeText("y"))
	it, _ = svc.Item(id)
	assert.Equal(t, todo.Complete, it.Status)

	send(m, keyDone, keyEnter)
	it, _ = svc.Item(id)
	assert.Equal(t, todo.Incomplete, it.Status)
}

func TestModel_NoConfirmActsImmediately(t *testing.T) {
	m, svc := newTestModel(t, false)
	m = send(m, typeText("a"), keyEnter)

	m = send(m, keyDone)
	assert.Nil(t, m.pending)
	assert.Equal(t, todo.Complete, items(svc, todo.Work)[0].Status)

	send(m, keyDel)
	assert.Equal(t, 0, svc.Len())
}

func TestModel_RenameFlow(t *testing.T) {
	m, svc := newTestModel(t, true)
	m = send(m, typeText("first"), keyEnter, typeText("second"), keyEnter)
	require.Len(t, items(svc, todo.Work), 2)

	// Select "first" and edit it.
	m = send(m, keyUp, keyEdit)
	first := items(svc, todo.Work)[0]
	require.Equal(t, first.ID, m.editing)
	assert.Equal(t, "first", m.input.Value())

	// Tab switching is blocked while editing.
	m = send(m, keyTab)
	assert.Equal(t, todo.Work, svc.SelectedTab())

	m = send(m, typeText(" (renamed)"), keyEnter)
	assert.Empty(t, m.editing)
	it, _ := svc.Item(first.ID)
	assert.Equal(t, "first (renamed)", it.Text)
	assert.Equal(t, 2, svc.Len())
}

func TestModel_RenameToEmptyKeepsText(t *testing.T) {
	m, svc := newTestModel(t, true)
	m = send(m, typeText("keep"), keyEnter, keyEdit)
	id := m.editing
	require.NotEmpty(t, id)

	m.input.SetValue("")
	m = send(m, keyEnter)
	assert.Equal(t, id, m.editing, "still editing after empty submit")
	assert.True(t, m.warn)
	it, _ := svc.Item(id)
	assert.Equal(t, "keep", it.Text)

	m = send(m, keyEsc)
	assert.Empty(t, m.editing)
	it, _ = svc.Item(id)
	assert.Equal(t, "keep", it.Text)
}

func TestModel_ViewShowsTabsAndCounts(t *testing.T) {
	m, _ := newTestModel(t, true)
	m = send(m, typeText("a"), keyEnter)
	v := m.View()
	assert.Contains(t, v, "Work 0/1")
	assert.Contains(t, v, "Travel 0/0")
}
