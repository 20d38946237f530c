package classpath

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no entry holds the requested path.
	ErrNotFound = errors.New("resource not found on classpath")

	// ErrUnsupportedEntry is returned for a file entry that is not a
	// directory, archive, jmod or class file.
	ErrUnsupportedEntry = errors.New("unsupported classpath entry")
)

// ConfigError reports a classpath entry that cannot be used.
type ConfigError struct {
	Entry string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("classpath entry %s: %v", e.Entry, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
