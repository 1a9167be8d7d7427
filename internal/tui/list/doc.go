// Package listview provides a scrolling selection list for Bubble Tea views.
//
// Only the rows inside the viewport are rendered. The window follows the selection and
// never scrolls past either end of the list. Items are replaced wholesale with
// SetItems; the selection is kept when it still fits the new items.
package listview
