package config

import (
	"fmt"
	"strings"
)

// ValidationError lists every violation found in a configuration.
// The zero value is ready to use.
type ValidationError struct {
	Violations []string
}

// Addf records a violation.
func (e *ValidationError) Addf(format string, args ...any) {
	e.Violations = append(e.Violations, fmt.Sprintf(format, args...))
}

// Merge appends the violations of other, if other is a *ValidationError,
// or its message otherwise. Nil errors are ignored.
func (e *ValidationError) Merge(other error) {
	if other == nil {
		return
	}
	if ve, ok := other.(*ValidationError); ok {
		e.Violations = append(e.Violations, ve.Violations...)
		return
	}
	e.Violations = append(e.Violations, other.Error())
}

// Err returns e when at least one violation was recorded, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}

// Error implements the error interface with an enumerated violation list.
func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid configuration (%d violations):", len(e.Violations))
	for i, v := range e.Violations {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, v)
	}
	return b.String()
}
