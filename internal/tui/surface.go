package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/pubscope/internal/controller"
	"github.com/rshade/pubscope/internal/model"
	"github.com/rshade/pubscope/internal/pagination"
	"github.com/rshade/pubscope/internal/widget"
)

// TerminalSurface runs the interactive Browser as a full-screen program.
type TerminalSurface struct {
	Theme Theme
	In    io.Reader
	Out   io.Writer
	// AltScreen draws on the alternate screen buffer.
	AltScreen bool
}

// Attach runs the browser until the user quits or ctx is cancelled.
func (s TerminalSurface) Attach(ctx context.Context, c *controller.Controller, view widget.View) error {
	b := NewBrowser(ctx, c, view, s.Theme)
	defer b.Close()

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if s.In != nil {
		opts = append(opts, tea.WithInput(s.In))
	}
	if s.Out != nil {
		opts = append(opts, tea.WithOutput(s.Out))
	}
	if s.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}

	if _, err := tea.NewProgram(b, opts...).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("running publication browser: %w", err)
	}
	return nil
}

// PlainSurface prints the settled page as text and returns.
type PlainSurface struct {
	Out   io.Writer
	Theme Theme
}

// Attach waits for pending work, then prints the results. A failed fetch is printed
// and returned.
func (s PlainSurface) Attach(ctx context.Context, c *controller.Controller, view widget.View) error {
	snap, err := c.Await(ctx)
	if err != nil {
		return err
	}
	if err := WritePlain(s.Out, snap, view, s.Theme); err != nil {
		return err
	}
	return snap.Err
}

// WritePlain writes snap as text: the count, the pagination row and one block per
// publication.
func WritePlain(w io.Writer, snap controller.Snapshot, view widget.View, theme Theme) error {
	var sb strings.Builder
	sb.WriteString(CountLine(snap.Result.TotalCount))
	sb.WriteString("\n")
	if snap.ShowPagination() {
		sb.WriteString(LinksLine(snap.Links, snap.Page, theme))
		sb.WriteString("  (")
		sb.WriteString(PageSummary(snap.Meta(), len(snap.Result.Items)))
		sb.WriteString(")\n")
	}

	opts := RenderOptions{
		ShowDates:    view.ShowDates,
		HideProjects: snap.Filters.Bool(model.FilterHideProjects),
		Projects:     view.Projects,
		Theme:        theme,
	}
	for _, p := range snap.Result.Items {
		sb.WriteString("\n")
		for _, line := range PublicationLines(p, opts) {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	if snap.Err != nil {
		sb.WriteString("\n")
		sb.WriteString(theme.Error.Render("Could not load publications: " + snap.Err.Error()))
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// JSONSurface prints the settled page as one JSON document.
type JSONSurface struct {
	Out io.Writer
}

// Page is the JSON form of a settled page.
type Page struct {
	Filters      model.FilterSet     `json:"filters"`
	Pagination   pagination.Meta     `json:"pagination"`
	Links        []string            `json:"links"`
	Count        int                 `json:"count"`
	Publications []model.Publication `json:"publications"`
	Error        string              `json:"error,omitempty"`
}

// NewPage converts snap to its JSON form.
func NewPage(snap controller.Snapshot) Page {
	links := make([]string, 0, len(snap.Links))
	if snap.ShowPagination() {
		for _, l := range snap.Links {
			links = append(links, l.String())
		}
	}
	items := snap.Result.Items
	if items == nil {
		items = []model.Publication{}
	}
	p := Page{
		Filters:      snap.Filters,
		Pagination:   snap.Meta(),
		Links:        links,
		Count:        snap.Result.TotalCount,
		Publications: items,
	}
	if snap.Err != nil {
		p.Error = snap.Err.Error()
	}
	return p
}

// Attach waits for pending work, then writes the page.
func (s JSONSurface) Attach(ctx context.Context, c *controller.Controller, _ widget.View) error {
	snap, err := c.Await(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(s.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewPage(snap)); err != nil {
		return fmt.Errorf("encoding page: %w", err)
	}
	return snap.Err
}
