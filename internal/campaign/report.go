package campaign

import (
	"fmt"

	apperr "github.com/entourage/entourage/internal/errors"
)

// ItemError records one per-item failure inside a batch.
type ItemError struct {
	// Item identifies the failed item (account name, group name, container
	// name).
	Item string
	// Kind classifies the failure.
	Kind apperr.Kind
	// Message is the full error text.
	Message string
}

// Report aggregates the outcome of one batch operation. Partial failure is
// data, not control flow: batch loops never abort on a single item's error.
type Report struct {
	// Attempted is the number of items the batch tried.
	Attempted int
	// Succeeded is the number of items that completed.
	Succeeded int
	// Errors lists per-item failures in encounter order.
	Errors []ItemError
	// Notes carries warning-level conditions that are not tied to a single
	// item (e.g. region enumeration fallback).
	Notes []string
}

// RecordError appends a per-item failure.
func (r *Report) RecordError(item string, err error) {
	r.Errors = append(r.Errors, ItemError{
		Item:    item,
		Kind:    apperr.KindOf(err),
		Message: err.Error(),
	})
}

// Note appends a warning-level note.
func (r *Report) Note(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// Failed returns the number of recorded per-item failures.
func (r *Report) Failed() int {
	return len(r.Errors)
}

// AllSucceeded reports whether every attempted item completed.
func (r *Report) AllSucceeded() bool {
	return r.Succeeded == r.Attempted && len(r.Errors) == 0
}
