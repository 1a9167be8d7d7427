package listview

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// RenderFunc renders one row. selected marks the row under the cursor.
type RenderFunc[T any] func(item T, selected bool, width int) string

// Model is a windowed selection list.
type Model[T any] struct {
	items  []T
	render RenderFunc[T]

	selected int
	// offset is the index of the first visible row.
	offset int

	height int
	width  int
}

// New creates a list showing height rows of width columns.
func New[T any](items []T, height, width int, render RenderFunc[T]) *Model[T] {
	m := &Model[T]{
		items:  items,
		render: render,
		height: max(height, 1),
		width:  width,
	}
	m.clamp()
	return m
}

// Init implements tea.Model.
func (m *Model[T]) Init() tea.Cmd {
	return nil
}

// Update moves the selection on navigation keys. Other messages are ignored.
func (m *Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		m.handleKey(key)
	}
	return m, nil
}

func (m *Model[T]) handleKey(msg tea.KeyMsg) {
	switch msg.String() {
	case "up", "k":
		m.SetSelected(m.selected - 1)
	case "down", "j":
		m.SetSelected(m.selected + 1)
	case "pgup":
		m.SetSelected(m.selected - m.height)
	case "pgdown":
		m.SetSelected(m.selected + m.height)
	case "home":
		m.SetSelected(0)
	case "end":
		m.SetSelected(len(m.items) - 1)
	}
}

// View renders the visible rows.
func (m *Model[T]) View() string {
	if len(m.items) == 0 {
		return ""
	}
	end := min(m.offset+m.height, len(m.items))
	rows := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		rows = append(rows, m.render(m.items[i], i == m.selected, m.width))
	}
	return strings.Join(rows, "\n")
}

// SetItems replaces the items.
func (m *Model[T]) SetItems(items []T) {
	m.items = items
	m.clamp()
}

// SetSize changes the viewport.
func (m *Model[T]) SetSize(height, width int) {
	m.height = max(height, 1)
	m.width = width
	m.clamp()
}

// Len returns the number of items.
func (m *Model[T]) Len() int { return len(m.items) }

// Selected returns the selected index.
func (m *Model[T]) Selected() int { return m.selected }

// SetSelected moves the selection to index, clamped to the items.
func (m *Model[T]) SetSelected(index int) {
	m.selected = index
	m.clamp()
}

// SelectedItem returns the selected item, or false when the list is empty.
func (m *Model[T]) SelectedItem() (T, bool) {
	if len(m.items) == 0 {
		var zero T
		return zero, false
	}
	return m.items[m.selected], true
}

// Window returns the visible index range [from, to).
func (m *Model[T]) Window() (int, int) {
	return m.offset, min(m.offset+m.height, len(m.items))
}

// clamp keeps selected inside the items and the window around selected.
func (m *Model[T]) clamp() {
	n := len(m.items)
	if n == 0 {
		m.selected, m.offset = 0, 0
		return
	}
	m.selected = min(max(m.selected, 0), n-1)
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+m.height {
		m.offset = m.selected - m.height + 1
	}
	m.offset = max(min(m.offset, n-m.height), 0)
}
