package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrSourceUnavailable = errors.New("entity source unavailable")
	ErrNoFields          = errors.New("no fields to insert")
	ErrNoStructuredData  = errors.New("no structured data found")
)

// FetchError folds every external-source failure (network, status, parse) into one kind.
type FetchError struct {
	Op  string // fields|faq
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.Op, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// PersistError wraps storage failures of the reconciler.
type PersistError struct {
	Op   string // lookup|insert|update
	UUID string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s attributes for %s: %v", e.Op, e.UUID, e.Err)
}
func (e *PersistError) Unwrap() error { return e.Err }
