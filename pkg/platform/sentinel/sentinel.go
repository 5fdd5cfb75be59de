// Package sentinel holds infrastructure errors returned by stores.
//
// Stores return these, optionally wrapped, and services translate them into
// domain errors. Validation failures use pkg/domain-errors directly.
package sentinel

import "errors"

var (
	// ErrNotFound: the record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a record with the same key already exists.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState: the store is not in a state that allows the operation.
	ErrInvalidState = errors.New("invalid state")
)
