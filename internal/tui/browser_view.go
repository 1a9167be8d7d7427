package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/pubscope/internal/model"
)

const searchHint = "To search for an exact phrase, enclose term in quotation marks."

// View renders the browser.
func (b *Browser) View() string {
	if b.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(b.renderForm())
	sb.WriteString("\n\n")
	sb.WriteString(b.theme.Title.Render("Publications"))
	sb.WriteString("\n")
	sb.WriteString(b.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(b.theme.Muted.Render(strings.Repeat("─", max(b.width, 1))))
	sb.WriteString("\n")
	sb.WriteString(b.renderResults())

	if b.snap.Err != nil {
		sb.WriteString("\n")
		sb.WriteString(b.theme.Error.Render("Could not load publications: " + b.snap.Err.Error()))
		sb.WriteString(b.theme.Muted.Render("  press r to retry"))
	}
	if b.notice != "" {
		sb.WriteString("\n")
		sb.WriteString(b.theme.Error.Render(b.notice))
	}
	if detail := b.renderDetail(); detail != "" {
		sb.WriteString("\n")
		sb.WriteString(detail)
	}
	sb.WriteString("\n")
	sb.WriteString(b.theme.Muted.Render(helpText))
	return sb.String()
}

func (b *Browser) label(f field, text string) string {
	if b.focus == f {
		return b.theme.Focused.Render("› " + text)
	}
	return b.theme.Label.Render("  " + text)
}

func (b *Browser) renderForm() string {
	lines := []string{
		b.label(fieldSearch, "Text search: ") + b.search.View(),
		"  " + b.theme.Muted.Render(searchHint),
		b.label(fieldStartDate, "Start date: ") + b.startDate.View() +
			"  " + b.label(fieldEndDate, "End date: ") + b.endDate.View(),
	}
	if b.view.Types.Len() > 0 {
		selected := b.snap.Filters.Strings(model.FilterType)
		lines = append(lines, b.label(fieldType, "Type: ")+
			b.renderChoices(b.view.Types, selected, fieldType, b.typeCursor, "(•)", "( )"))
	}
	if b.view.Projects.Len() > 0 && !b.snap.Filters.Bool(model.FilterHideProjects) {
		selected := b.snap.Filters.Strings(model.FilterProjects)
		lines = append(lines, b.label(fieldProjects, "Project: ")+
			b.renderChoices(b.view.Projects, selected, fieldProjects, b.projectCursor, "[x]", "[ ]"))
	}
	return strings.Join(lines, "\n")
}

func (b *Browser) renderChoices(vocab model.Vocabulary, selected []string, f field, cursor int, on, off string) string {
	entries := vocab.Entries()
	parts := make([]string, 0, len(entries))
	for i, e := range entries {
		mark := off
		if slices.Contains(selected, e.Code) {
			mark = on
		}
		item := mark + " " + e.Label
		if b.focus == f && i == cursor {
			item = b.theme.Selected.Render(item)
		}
		parts = append(parts, item)
	}
	return strings.Join(parts, "  ")
}

func (b *Browser) renderHeader() string {
	left := CountLine(b.snap.Result.TotalCount)
	if b.snap.ShowPagination() {
		left += "   " + LinksLine(b.snap.Links, b.snap.Page, b.theme)
	}
	right := b.label(fieldLimit, "Publications per page: ") + b.limit.View()
	gap := b.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		return left + "\n" + right
	}
	return left + strings.Repeat(" ", gap) + right
}

func (b *Browser) renderResults() string {
	switch {
	case b.snap.Busy():
		return b.spinner.View() + " " + Placeholder
	case b.results.Len() == 0:
		return b.theme.Muted.Render("No publications match the current filters.")
	}
	return b.results.View() + "\n" +
		b.theme.Muted.Render(PageSummary(b.snap.Meta(), b.results.Len()))
}

func (b *Browser) renderRow(p model.Publication, selected bool, width int) string {
	row := PublicationRow(p, b.view.ShowDates, width-2)
	if selected && b.focus == fieldResults {
		return b.theme.Selected.Render("› " + row)
	}
	return "  " + row
}

func (b *Browser) renderDetail() string {
	if !b.expanded || b.snap.Busy() {
		return ""
	}
	p, ok := b.results.SelectedItem()
	if !ok {
		return ""
	}
	lines := PublicationLines(p, RenderOptions{
		ShowDates:    b.view.ShowDates,
		HideProjects: b.snap.Filters.Bool(model.FilterHideProjects),
		Projects:     b.view.Projects,
		Theme:        b.theme,
	})
	return b.theme.Box.Width(max(b.width-4, 20)).Render(strings.Join(lines, "\n"))
}
