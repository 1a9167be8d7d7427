// Package tui renders the publication list in a terminal.
//
// Browser is an interactive Bubble Tea model bound to a query controller. Filter
// fields feed the controller's debounced edits, pagination keys navigate immediately,
// and controller snapshots flow back through a non-blocking feed. PlainSurface and
// JSONSurface print a single settled page for scripts and pipes.
package tui

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/pubscope/internal/controller"
	"github.com/rshade/pubscope/internal/model"
	"github.com/rshade/pubscope/internal/pagination"
	listview "github.com/rshade/pubscope/internal/tui/list"
	"github.com/rshade/pubscope/internal/widget"
)

const (
	defaultWidth  = 80
	defaultHeight = 24

	// chromeHeight is the number of rows used by everything except the result rows.
	chromeHeight = 16
	minListRows  = 3

	searchCharLimit = 200
	dateCharLimit   = len(dateLayout)
	limitCharLimit  = 5

	dateLayout = "2006-01-02"
)

// field identifies a focusable part of the browser.
type field int

const (
	fieldSearch field = iota
	fieldStartDate
	fieldEndDate
	fieldType
	fieldProjects
	fieldLimit
	fieldResults
)

// Browser is the interactive publication list.
type Browser struct {
	ctx         context.Context
	ctrl        *controller.Controller
	view        widget.View
	theme       Theme
	feed        *feed
	unsubscribe func()

	snap  controller.Snapshot
	focus field

	search    textinput.Model
	startDate textinput.Model
	endDate   textinput.Model
	limit     textinput.Model

	typeCursor    int
	projectCursor int

	results  *listview.Model[model.Publication]
	spinner  spinner.Model
	expanded bool

	// notice is a transient message about rejected input.
	notice string

	width    int
	height   int
	quitting bool
}

// NewBrowser binds a browser to c. Call Close when the browser is no longer drawn.
func NewBrowser(ctx context.Context, c *controller.Controller, view widget.View, theme Theme) *Browser {
	b := &Browser{
		ctx:     ctx,
		ctrl:    c,
		view:    view,
		theme:   theme,
		feed:    newFeed(),
		width:   defaultWidth,
		height:  defaultHeight,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.Label)),
	}
	b.unsubscribe = c.Subscribe(b.feed.push)

	snap := c.Snapshot()
	b.search = newInput("search publications", searchCharLimit, snap.Filters.String(model.FilterSearch))
	b.startDate = newInput("YYYY-MM-DD", dateCharLimit, snap.Filters.String(model.FilterStartDate))
	b.endDate = newInput("YYYY-MM-DD", dateCharLimit, snap.Filters.String(model.FilterEndDate))
	b.limit = newInput("", limitCharLimit, strconv.Itoa(snap.Limit))
	b.results = listview.New(snap.Result.Items, b.listRows(), b.width, b.renderRow)
	b.snap = snap
	b.setFocus(fieldSearch)
	return b
}

func newInput(placeholder string, limit int, value string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.SetValue(value)
	return ti
}

// Close detaches the browser from its controller.
func (b *Browser) Close() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

// Snapshot returns the state currently drawn.
func (b *Browser) Snapshot() controller.Snapshot { return b.snap }

// Init starts the cursor blink, the spinner and the snapshot feed.
func (b *Browser) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, b.spinner.Tick, b.feed.next(b.ctx))
}

// Update handles one message.
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
		b.results.SetSize(b.listRows(), b.width)
		return b, nil
	case snapshotMsg:
		b.apply(controller.Snapshot(msg))
		return b, b.feed.next(b.ctx)
	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinner, cmd = b.spinner.Update(msg)
		return b, cmd
	case tea.KeyMsg:
		cmd := b.handleKey(msg)
		b.apply(b.ctrl.Snapshot())
		return b, cmd
	}
	return b, nil
}

// apply draws s unless a newer snapshot is already drawn.
func (b *Browser) apply(s controller.Snapshot) {
	if s.Version < b.snap.Version {
		return
	}
	committed := b.snap.Busy() && !s.Busy() && s.Err == nil
	b.snap = s
	b.results.SetItems(s.Result.Items)
	if committed {
		b.results.SetSelected(0)
		b.expanded = false
	}
	if b.focus != fieldLimit {
		b.limit.SetValue(strconv.Itoa(s.Limit))
	}
}

func (b *Browser) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case keyCtrlC:
		b.quitting = true
		return tea.Quit
	case keyTab:
		return b.moveFocus(1)
	case keyShiftTab:
		return b.moveFocus(-1)
	case keyCtrlR:
		b.ctrl.Refresh()
		return nil
	case keyEsc:
		return b.setFocus(fieldResults)
	}

	switch b.focus {
	case fieldSearch:
		return b.editText(&b.search, msg, model.Search)
	case fieldStartDate:
		return b.editDate(&b.startDate, msg, model.StartDate)
	case fieldEndDate:
		return b.editDate(&b.endDate, msg, model.EndDate)
	case fieldType:
		b.handleChoice(msg, b.view.Types, &b.typeCursor, model.SelectType)
	case fieldProjects:
		b.handleChoice(msg, b.view.Projects, &b.projectCursor, model.ToggleProject)
	case fieldLimit:
		return b.editLimit(msg)
	case fieldResults:
		return b.handleResultsKey(msg)
	}
	return nil
}

// fields lists the focusable fields in tab order.
func (b *Browser) fields() []field {
	out := []field{fieldSearch, fieldStartDate, fieldEndDate}
	if b.view.Types.Len() > 0 {
		out = append(out, fieldType)
	}
	if b.view.Projects.Len() > 0 && !b.snap.Filters.Bool(model.FilterHideProjects) {
		out = append(out, fieldProjects)
	}
	return append(out, fieldLimit, fieldResults)
}

func (b *Browser) moveFocus(delta int) tea.Cmd {
	order := b.fields()
	i := slices.Index(order, b.focus)
	next := order[(i+delta+len(order))%len(order)]
	return b.setFocus(next)
}

func (b *Browser) setFocus(f field) tea.Cmd {
	if b.focus == fieldLimit && f != fieldLimit {
		b.commitLimit()
	}
	b.focus = f
	b.search.Blur()
	b.startDate.Blur()
	b.endDate.Blur()
	b.limit.Blur()

	switch f {
	case fieldSearch:
		return b.search.Focus()
	case fieldStartDate:
		return b.startDate.Focus()
	case fieldEndDate:
		return b.endDate.Focus()
	case fieldLimit:
		return b.limit.Focus()
	}
	return nil
}

func (b *Browser) editText(in *textinput.Model, msg tea.KeyMsg, edit func(string) model.FilterEdit) tea.Cmd {
	if msg.String() == keyEnter {
		return b.setFocus(fieldResults)
	}
	before := in.Value()
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	if in.Value() != before {
		b.notice = ""
		b.ctrl.SetFilter(edit(in.Value()))
	}
	return cmd
}

// editDate forwards only empty or complete dates to the controller.
func (b *Browser) editDate(in *textinput.Model, msg tea.KeyMsg, edit func(string) model.FilterEdit) tea.Cmd {
	if msg.String() == keyEnter {
		return b.setFocus(fieldResults)
	}
	before := in.Value()
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	value := strings.TrimSpace(in.Value())
	if in.Value() == before {
		return cmd
	}
	if value != "" {
		if _, err := time.Parse(dateLayout, value); err != nil {
			b.notice = "dates use YYYY-MM-DD"
			return cmd
		}
	}
	b.notice = ""
	b.ctrl.SetFilter(edit(value))
	return cmd
}

func (b *Browser) handleChoice(msg tea.KeyMsg, vocab model.Vocabulary, cursor *int, edit func(string) model.FilterEdit) {
	n := vocab.Len()
	if n == 0 {
		return
	}
	switch msg.String() {
	case keyLeft, "h", "up", "k":
		*cursor = (*cursor - 1 + n) % n
	case keyRight, "l", "down", "j":
		*cursor = (*cursor + 1) % n
	case keySpace, keyEnter, "x":
		b.ctrl.SetFilter(edit(vocab.Codes()[*cursor]))
	}
}

func (b *Browser) editLimit(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == keyEnter {
		b.commitLimit()
		return nil
	}
	var cmd tea.Cmd
	b.limit, cmd = b.limit.Update(msg)
	return cmd
}

// commitLimit submits the limit field, reverting it when the value is rejected.
func (b *Browser) commitLimit() {
	if err := b.ctrl.SetLimit(b.limit.Value()); err != nil {
		b.notice = "publications per page must be a whole number of at least 1"
		b.limit.SetValue(strconv.Itoa(b.ctrl.Snapshot().Limit))
		return
	}
	b.notice = ""
}

func (b *Browser) handleResultsKey(msg tea.KeyMsg) tea.Cmd {
	meta := b.snap.Meta()
	switch key := msg.String(); key {
	case keyQuit:
		b.quitting = true
		return tea.Quit
	case keyRetry:
		b.ctrl.Refresh()
	case keyEnter:
		b.expanded = !b.expanded
	case keyNext, keyRight:
		if meta.HasNext {
			b.navigate(string(pagination.KindNext))
		}
	case keyPrev, keyLeft:
		if meta.HasPrevious {
			b.navigate(string(pagination.KindPrev))
		}
	case keyFirst:
		if meta.HasPrevious {
			b.navigate(string(pagination.KindFirst))
		}
	case keyLast:
		if meta.HasNext {
			b.navigate(string(pagination.KindLast))
		}
	default:
		if n, err := strconv.Atoi(key); err == nil && b.hasPageLink(n) {
			b.navigate(key)
			return nil
		}
		_, cmd := b.results.Update(msg)
		return cmd
	}
	return nil
}

func (b *Browser) hasPageLink(page int) bool {
	return slices.ContainsFunc(b.snap.Links, func(l pagination.Link) bool {
		return l.Kind == pagination.KindNumber && l.Page == page
	})
}

func (b *Browser) navigate(token string) {
	if err := b.ctrl.SetPage(token); err != nil {
		b.notice = err.Error()
		return
	}
	b.notice = ""
}

func (b *Browser) listRows() int {
	return max(b.height-chromeHeight, minListRows)
}
