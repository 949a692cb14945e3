package collector

import (
	"errors"
	"fmt"
)

// ErrSourceRoot marks a spec root that is missing or not a directory.
var ErrSourceRoot = errors.New("spec root is not a readable directory")

// ConfigurationError reports an unknown collector type or a bad option.
// It is raised before any collection attempt.
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Option == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: %s: %s", e.Option, e.Reason)
}

// CollectorError reports a source failure. Path names the offending file or directory.
type CollectorError struct {
	Path string
	Err  error
}

func (e *CollectorError) Error() string {
	return fmt.Sprintf("collect %s: %v", e.Path, e.Err)
}

func (e *CollectorError) Unwrap() error { return e.Err }
