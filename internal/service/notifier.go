package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

type NotificationType string

const (
	NotifyTaskOverdue NotificationType = "TASK_OVERDUE"
	NotifyTaskDueSoon NotificationType = "TASK_DUE_SOON"
)

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
)

// Notification asks the notifier to tell one member about one occurrence.
// Delivery, preferences and suppression are the notifier's business.
type Notification struct {
	MemberID     string
	HouseholdID  string
	OccurrenceID string
	Title        string
	DueDate      time.Time
	Type         NotificationType
	Priority     Priority
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// LogNotifier writes notifications to the log. It is the sink used when no
// delivery channel is configured.
type LogNotifier struct {
	Log zerolog.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notification) error {
	l.Log.Info().
		Str("member", n.MemberID).
		Str("occurrence", n.OccurrenceID).
		Str("type", string(n.Type)).
		Str("priority", string(n.Priority)).
		Time("due", n.DueDate).
		Msg(n.Title)
	return nil
}

// MultiNotifier fans a notification out to every sink.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
