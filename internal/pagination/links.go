package pagination

import (
	"errors"
	"fmt"
	"strconv"
)

// WindowRadius is how many numbered pages are shown on each side of the current page.
const WindowRadius = 3

// Kind identifies a pagination control.
type Kind string

// Control kinds. Tokens with these names are accepted by Resolve.
const (
	KindPrev   Kind = "prev"
	KindFirst  Kind = "first"
	KindNumber Kind = "number"
	KindLast   Kind = "last"
	KindNext   Kind = "next"
)

var (
	// ErrUnknownToken is returned by Resolve for tokens that are neither a control name nor a
	// page number.
	ErrUnknownToken = errors.New("unknown pagination token")
	// ErrPageOutOfRange is returned by Resolve when the target page would be below 1.
	ErrPageOutOfRange = errors.New("page out of range")
)

// Link is one pagination control. Page is the page it navigates to.
type Link struct {
	Kind Kind `json:"kind"`
	Page int  `json:"page"`
}

// String returns the token that Resolve maps back to l.Page.
func (l Link) String() string {
	if l.Kind == KindNumber {
		return strconv.Itoa(l.Page)
	}
	return string(l.Kind)
}

// TotalPages returns ceil(totalCount/limit), or 0 when limit is not positive.
func TotalPages(totalCount, limit int) int {
	if limit <= 0 || totalCount <= 0 {
		return 0
	}
	return (totalCount + limit - 1) / limit
}

// PageLinks returns the control row for page. The numbered window spans
// [max(1, page-3), min(pages, page+3)].
func PageLinks(page, totalCount, limit int) []Link {
	pages := TotalPages(totalCount, limit)
	first := max(1, page-WindowRadius)
	last := min(pages, page+WindowRadius)

	var links []Link
	if page > 1 {
		links = append(links, Link{Kind: KindPrev, Page: page - 1})
	}
	if first > 1 {
		links = append(links, Link{Kind: KindFirst, Page: 1})
	}
	for n := first; n <= last; n++ {
		links = append(links, Link{Kind: KindNumber, Page: n})
	}
	if last < pages {
		links = append(links, Link{Kind: KindLast, Page: pages})
	}
	if page < pages {
		links = append(links, Link{Kind: KindNext, Page: page + 1})
	}
	return links
}

// Resolve maps a control token to its target page.
func Resolve(token string, page, totalCount, limit int) (int, error) {
	var target int
	switch Kind(token) {
	case KindPrev:
		target = page - 1
	case KindNext:
		target = page + 1
	case KindFirst:
		target = 1
	case KindLast:
		target = TotalPages(totalCount, limit)
	default:
		n, err := strconv.Atoi(token)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrUnknownToken, token)
		}
		target = n
	}
	if target < 1 {
		return 0, fmt.Errorf("%w: %q resolves to %d", ErrPageOutOfRange, token, target)
	}
	return target, nil
}

// Visible reports whether pagination controls should be shown at all.
func Visible(page, totalCount, limit int) bool {
	return page > 1 || totalCount >= limit
}
