package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/pubscope/internal/config"
	"github.com/rshade/pubscope/internal/model"
)

const dateLayout = "2006-01-02"

// filterFlags are the filter overrides shared by browse and list.
type filterFlags struct {
	search       string
	startDate    string
	endDate      string
	pubType      string
	projects     []string
	authors      []string
	hideProjects bool
	showDates    bool
	limit        int
	page         int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.search, "search", "", "free-text search; quote a phrase to match it exactly")
	fs.StringVar(&f.startDate, "start-date", "", "earliest publication date (YYYY-MM-DD)")
	fs.StringVar(&f.endDate, "end-date", "", "latest publication date (YYYY-MM-DD)")
	fs.StringVar(&f.pubType, "type", "", "publication type code, see 'pubscope vocab types'")
	fs.StringSliceVar(&f.projects, "project", nil, "project code, repeatable, see 'pubscope vocab projects'")
	fs.StringSliceVar(&f.authors, "author", nil, "author name, repeatable")
	fs.BoolVar(&f.hideProjects, "hide-projects", false, "hide project selection and labels")
	fs.BoolVar(&f.showDates, "show-dates", false, "show publication dates")
	fs.IntVar(&f.limit, "limit", 0, "publications per page (default from config)")
	fs.IntVar(&f.page, "page", 1, "page to start on")
}

// overrides layers explicitly set flags over the configured view.filters.
func (f *filterFlags) overrides(cmd *cobra.Command, cfg *config.Config) (model.FilterSet, error) {
	set := cfg.View.Filters.Clone()
	if set.Len() == 0 {
		set = model.NewFilterSet()
	}
	changed := cmd.Flags().Changed

	for _, d := range []struct{ flag, value string }{
		{"start-date", f.startDate},
		{"end-date", f.endDate},
	} {
		if changed(d.flag) && d.value != "" {
			if _, err := time.Parse(dateLayout, d.value); err != nil {
				return model.FilterSet{}, fmt.Errorf("--%s must be YYYY-MM-DD, got %q", d.flag, d.value)
			}
		}
	}

	var edits []model.FilterEdit
	if changed("search") {
		edits = append(edits, model.Search(f.search))
	}
	if changed("start-date") {
		edits = append(edits, model.StartDate(f.startDate))
	}
	if changed("end-date") {
		edits = append(edits, model.EndDate(f.endDate))
	}
	if changed("type") {
		if f.pubType == "" {
			edits = append(edits, model.SetValue(model.FilterType, []string{}))
		} else {
			edits = append(edits, model.SetValue(model.FilterType, []string{f.pubType}))
		}
	}
	if changed("project") {
		edits = append(edits, model.Projects(f.projects...))
	}
	if changed("author") {
		edits = append(edits, model.Authors(f.authors...))
	}
	if changed("hide-projects") {
		edits = append(edits, model.HideProjects(f.hideProjects))
	}
	set.Apply(edits...)
	return set, nil
}

// pageSize returns --limit when set, else the configured page size.
func (f *filterFlags) pageSize(cmd *cobra.Command, cfg *config.Config) (int, error) {
	if !cmd.Flags().Changed("limit") {
		return cfg.View.PageSize, nil
	}
	if f.limit < 1 {
		return 0, fmt.Errorf("--limit must be >= 1, got %d", f.limit)
	}
	return f.limit, nil
}

// startPage validates --page.
func (f *filterFlags) startPage() (int, error) {
	if f.page < 1 {
		return 0, fmt.Errorf("--page must be >= 1, got %d", f.page)
	}
	return f.page, nil
}

// dates reports whether dates should be shown.
func (f *filterFlags) dates(cmd *cobra.Command, cfg *config.Config) bool {
	if cmd.Flags().Changed("show-dates") {
		return f.showDates
	}
	return cfg.View.ShowDates
}
