// Package system holds the immutable inputs to a sampler run: the observed
// dataset, the parameter descriptors, the temperature ladder, and the
// validated configuration object that ties them together.
//
// Everything here is constructed once by NewConfig and never mutated
// afterwards. There are no locks in this package because there is nothing
// to protect: unlike core.Graph (mutated concurrently by callers, hence its
// sync.RWMutex pair), a system.Config is read-only for the lifetime of the
// run, and every particle holds only a reference to it.
package system

import "fmt"

// ConfigError reports a single invalid field discovered while validating a
// Config. It is fatal: the caller must not start a run.
//
// Modeled on flow.EdgeError — a struct carrying the exact offending values,
// rather than a bare sentinel, because the host needs to know which field
// and why.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("system: invalid config field %q: %s", e.Field, e.Reason)
}

// configErrorf builds a *ConfigError with a formatted reason.
func configErrorf(field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
