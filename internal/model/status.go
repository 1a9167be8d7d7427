package model

// PendingStatus gates whether renderers show committed results or a transient placeholder.
type PendingStatus int

const (
	// StatusIdle shows the last committed ResultPage.
	StatusIdle PendingStatus = iota
	// StatusPending means a debounce timer is armed; stale results stay underneath the placeholder.
	StatusPending
	// StatusFetching means list and count requests are in flight.
	StatusFetching
)

// String returns the lowercase status name.
func (s PendingStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusFetching:
		return "fetching"
	default:
		return "unknown"
	}
}

// Busy reports whether a placeholder should be shown instead of results.
func (s PendingStatus) Busy() bool {
	return s == StatusPending || s == StatusFetching
}
