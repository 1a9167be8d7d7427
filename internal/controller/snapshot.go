package controller

import (
	"github.com/rshade/pubscope/internal/model"
	"github.com/rshade/pubscope/internal/pagination"
)

// Snapshot is an immutable view of controller state. Renderers should ignore snapshots
// whose Version is lower than one they have already drawn.
type Snapshot struct {
	Version uint64
	Filters model.FilterSet
	Page    int
	Limit   int
	Result  model.ResultPage
	Status  model.PendingStatus
	// Err is the failure of the most recent fetch, cleared by the next success or edit.
	Err   error
	Links []pagination.Link
}

// Busy reports whether a placeholder should replace the results.
func (s Snapshot) Busy() bool { return s.Status.Busy() }

// ShowPagination reports whether pagination controls should be drawn.
func (s Snapshot) ShowPagination() bool {
	return pagination.Visible(s.Page, s.Result.TotalCount, s.Limit)
}

// Meta summarises the current page.
func (s Snapshot) Meta() pagination.Meta {
	return pagination.NewMeta(s.Page, s.Result.TotalCount, s.Limit)
}
