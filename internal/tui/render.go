package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rshade/pubscope/internal/model"
	"github.com/rshade/pubscope/internal/pagination"
)

// Placeholder replaces the results while a refresh is pending or in flight.
const Placeholder = "..."

// RenderOptions control how publications are formatted.
type RenderOptions struct {
	ShowDates    bool
	HideProjects bool
	Projects     model.Vocabulary
	Theme        Theme
}

// PublicationLines formats p as the lines of one result entry.
func PublicationLines(p model.Publication, opts RenderOptions) []string {
	t := opts.Theme
	lines := []string{t.Title.Render(p.Title)}
	if len(p.Authors) > 0 {
		lines = append(lines, strings.Join(p.Authors, ", "))
	}

	meta := fmt.Sprintf("(%s) %s", p.Type, p.Citation)
	if opts.ShowDates && p.Date != "" {
		meta += "  " + t.Muted.Render(p.DisplayDate())
	}
	lines = append(lines, strings.TrimSpace(meta))

	if p.Abstract != "" {
		lines = append(lines, t.Label.Render("Abstract: ")+p.Abstract)
	}

	var tail []string
	if len(p.Downloads) > 0 {
		tail = append(tail, t.Label.Render("Download: ")+strings.Join(p.DownloadDomains(), " "))
	}
	if len(p.Projects) > 0 && !opts.HideProjects {
		labels := make([]string, 0, len(p.Projects))
		for _, code := range p.Projects {
			labels = append(labels, opts.Projects.Label(code))
		}
		tail = append(tail, t.Label.Render("Project: ")+strings.Join(labels, ", "))
	}
	if len(tail) > 0 {
		lines = append(lines, strings.Join(tail, "  "))
	}
	return lines
}

// PublicationRow formats p on a single line of at most width columns.
func PublicationRow(p model.Publication, showDates bool, width int) string {
	row := p.Title
	if showDates && p.Date != "" {
		row = p.Date[:min(len(p.Date), len("2006-01-02"))] + "  " + row
	}
	if width > 0 && lipgloss.Width(row) > width {
		row = truncate(row, width)
	}
	return row
}

// CountLine reports the total match count.
func CountLine(total int) string {
	noun := "results"
	if total == 1 {
		noun = "result"
	}
	return fmt.Sprintf("Search returned %s %s", humanize.Comma(int64(total)), noun)
}

// LinksLine renders pagination links, highlighting the current page.
func LinksLine(links []pagination.Link, current int, t Theme) string {
	parts := make([]string, 0, len(links))
	for _, l := range links {
		switch {
		case l.Kind == pagination.KindNumber && l.Page == current:
			parts = append(parts, t.Current.Render("["+l.String()+"]"))
		case l.Kind == pagination.KindNumber:
			parts = append(parts, l.String())
		default:
			parts = append(parts, t.Link.Render(l.String()))
		}
	}
	return strings.Join(parts, " ")
}

// PageSummary describes the visible range, e.g. "21-40 of 1,234".
func PageSummary(meta pagination.Meta, shown int) string {
	if meta.TotalItems == 0 || shown == 0 {
		return "0 of " + humanize.Comma(int64(meta.TotalItems))
	}
	from := meta.Offset() + 1
	to := meta.Offset() + shown
	return fmt.Sprintf("%s-%s of %s",
		humanize.Comma(int64(from)), humanize.Comma(int64(to)), humanize.Comma(int64(meta.TotalItems)))
}

func truncate(s string, width int) string {
	const ellipsis = "…"
	if width <= 1 {
		return ellipsis
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + ellipsis
}
