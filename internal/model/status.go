package model

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of an occurrence (and of a template's own
// schedule).
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusOverdue    Status = "overdue"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusOverdue:
		return s, nil
	default:
		return "", fmt.Errorf("%w %q", ErrInvalidStatus, raw)
	}
}
