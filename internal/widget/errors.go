package widget

import (
	"errors"
	"fmt"
)

// ErrMountNotFound means the requested mount point is not registered with the host.
var ErrMountNotFound = errors.New("mount point not found")

// ErrInvalidMount means the mount id is not of the form "#name".
var ErrInvalidMount = errors.New("mount id must start with '#'")

// ConfigurationError is a fatal setup problem. Nothing is mounted when one is returned.
type ConfigurationError struct {
	Mount string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for mount %q: %v", e.Mount, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
