// Package domain defines the core entities and errors of sprint
// reconciliation: the ISO week calculus, the typed tracker shapes, and the
// error kinds callers branch on.
package domain

import "fmt"

// EntityKind names the kind of remote entity a lookup failed to find.
type EntityKind string

// Entity kinds used in NotFoundError.
const (
	KindBoard       EntityKind = "board"
	KindProject     EntityKind = "project"
	KindField       EntityKind = "field"
	KindBundleValue EntityKind = "bundle value"
)

// NotFoundError reports that a required remote entity does not exist.
// It is fatal for the current run: the engine never creates boards,
// projects, fields, or bundle values.
type NotFoundError struct {
	Kind EntityKind
	Name string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// NewNotFoundError creates a NotFoundError for the given entity.
func NewNotFoundError(kind EntityKind, name string) *NotFoundError {
	return &NotFoundError{Kind: kind, Name: name}
}
