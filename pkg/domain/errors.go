package domain

import "fmt"

// ValidationError reports a client-correctable precondition failure. It is
// always raised before any mutation is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// ConflictError reports a transient commit-time conflict such as insufficient
// stock or a held lot lease. Callers must re-resolve candidates before
// retrying FEFO-based operations.
type ConflictError struct {
	Entity EntityType
	ID     string
	Reason string
}

func (e ConflictError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("conflict: %s", e.Reason)
	}
	return fmt.Sprintf("conflict: %s %s: %s", e.Entity, e.ID, e.Reason)
}

// InvariantViolation indicates a bug: a correctly-implemented caller should
// never observe one. The operation is aborted and the violation logged.
type InvariantViolation struct {
	Rule    string
	Message string
}

func (e InvariantViolation) Error() string {
	return fmt.Sprintf("invariant %s violated: %s", e.Rule, e.Message)
}

// ErrNotFound is returned when reference validation fails within
// transactional helpers.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
