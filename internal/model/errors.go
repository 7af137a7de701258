package model

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by stores when a template, occurrence or
	// member does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidStatus is returned by ParseStatus for unknown values.
	ErrInvalidStatus = errors.New("invalid status")
)

// Instant normalises t for storage: UTC, whole seconds. Uniqueness on
// scheduled_at and week_start_date relies on every writer doing this.
func Instant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// InstantPtr is Instant for optional columns.
func InstantPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := Instant(*t)
	return &v
}
