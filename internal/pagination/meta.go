package pagination

// Meta summarises a result page for JSON and YAML output.
type Meta struct {
	CurrentPage int  `json:"current_page" yaml:"current_page"`
	PageSize    int  `json:"page_size"    yaml:"page_size"`
	TotalPages  int  `json:"total_pages"  yaml:"total_pages"`
	TotalItems  int  `json:"total_items"  yaml:"total_items"`
	HasPrevious bool `json:"has_previous" yaml:"has_previous"`
	HasNext     bool `json:"has_next"     yaml:"has_next"`
}

// NewMeta builds metadata for the 1-based page of size limit out of totalCount items.
func NewMeta(page, totalCount, limit int) Meta {
	if page < 1 {
		page = 1
	}
	totalPages := TotalPages(totalCount, limit)
	return Meta{
		CurrentPage: page,
		PageSize:    limit,
		TotalPages:  totalPages,
		TotalItems:  totalCount,
		HasPrevious: page > 1,
		HasNext:     page < totalPages,
	}
}

// Offset returns the index of the first item on the page.
func (m Meta) Offset() int {
	return (m.CurrentPage - 1) * m.PageSize
}
