package store

import "fmt"

// ValidationError reports bad input to a domain operation. State is left
// unchanged.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("todo: invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an operation referencing a todo id that does not
// exist. State is left unchanged.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("todo: no item with id %q", e.ID)
}

// QueryError wraps a failure to compile or evaluate a query expression.
type QueryError struct {
	Expr string
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("todo: query %q: %v", e.Expr, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
