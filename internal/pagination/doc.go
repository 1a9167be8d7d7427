// Package pagination derives page-link controls from a page number, a total item count
// and a page size.
//
// The control row is a sliding window of at most seven numbered pages centred on the
// current page, flanked by first/last jumps when the window does not reach the ends and
// by prev/next steps when there is somewhere to go:
//   - PageLinks: the ordered control row
//   - Resolve: turns a clicked control token back into a target page
//   - Meta: summary metadata for machine-readable output
package pagination
