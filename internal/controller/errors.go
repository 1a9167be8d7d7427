package controller

import "errors"

var (
	// ErrInvalidLimit is returned by SetLimit for input that is not a positive integer.
	ErrInvalidLimit = errors.New("limit must be a positive integer")
	// ErrClosed is returned by operations on a closed controller.
	ErrClosed = errors.New("controller is closed")
)
