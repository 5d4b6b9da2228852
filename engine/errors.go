package engine

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed or out-of-domain input. Arg names the
// offending argument ("y", "yrep", "prob", ...).
type ValidationError struct {
	Arg    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Arg, e.Reason)
}

func validationErrorf(arg, format string, args ...any) error {
	return &ValidationError{Arg: arg, Reason: fmt.Sprintf(format, args...)}
}

// ArgumentConflictError reports options that cannot be combined in one call.
type ArgumentConflictError struct {
	Args   []string
	Reason string
}

func (e *ArgumentConflictError) Error() string {
	return fmt.Sprintf("conflicting arguments %s: %s", strings.Join(e.Args, ", "), e.Reason)
}
