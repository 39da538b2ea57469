package todo

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyText rejects create/rename input that is blank after trimming.
	ErrEmptyText = errors.New("todo: text is empty")
	// ErrNotFound means the id is not in the collection.
	ErrNotFound = errors.New("todo: item not found")
	// ErrInvalidCategory means the value is neither WORK nor TRAVEL.
	ErrInvalidCategory = errors.New("todo: invalid category")
	// ErrAmbiguousID means a short id matches more than one item.
	ErrAmbiguousID = errors.New("todo: ambiguous id")
)

// PersistenceError reports a failed read or write against the Store.
//
// Returned from a mutation it is a warning: the in-memory change has been
// applied and stays visible for the rest of the session.
type PersistenceError struct {
	Op  string // "load" or "save"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("todo: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsWarning reports whether err is a persistence failure that left the
// in-memory state changed.
func IsWarning(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
