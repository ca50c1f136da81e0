package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAvailable means no program is loaded. Callers should treat it
	// as "no script loaded" and carry on.
	ErrNotAvailable = errors.New("no program loaded")

	// ErrNotFound means no occupied slot has the requested name.
	ErrNotFound = errors.New("variable not found")

	// ErrTypeMismatch means a numeric write targeted a string variable.
	ErrTypeMismatch = errors.New("variable holds a string; only numeric variables can be changed")
)

// VariableError records the operation and variable behind a failure.
type VariableError struct {
	Op   string
	Name string
	Err  error
}

func (e *VariableError) Error() string {
	if e.Name == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Name, e.Err)
}

func (e *VariableError) Unwrap() error {
	return e.Err
}
