package core

import (
	"context"
	"sync"
)

// Severity controls how a notification is presented.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
)

// Notification is a transient user-facing message.
type Notification struct {
	Title    string
	Message  string
	Severity Severity
	Code     string // Support code from MapError, empty for non-errors
}

// Notifier receives notifications raised by the controllers.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification)

// Notify calls f(ctx, n).
func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// discardNotifier is used when a controller is built without a Notifier.
type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, Notification) {}

// errorNotification builds an error notification for a failed action.
// The message is prefixed the way the view presents it, e.g.
// "Error deleting data: <service message>".
func errorNotification(title, prefix string, err error) Notification {
	msg := ServiceMessage(err)
	if prefix != "" {
		msg = prefix + msg
	}
	return Notification{
		Title:    title,
		Message:  msg,
		Severity: SeverityError,
		Code:     MapError(err).Code,
	}
}

// DefaultQueueSize bounds a NotificationQueue.
const DefaultQueueSize = 20

// NotificationQueue buffers notifications until the view drains them.
// When full, the oldest entry is dropped.
type NotificationQueue struct {
	mu    sync.Mutex
	items []Notification
	limit int
}

// NewNotificationQueue creates a queue holding at most limit entries.
func NewNotificationQueue(limit int) *NotificationQueue {
	if limit <= 0 {
		limit = DefaultQueueSize
	}
	return &NotificationQueue{limit: limit}
}

// Notify implements Notifier.
func (q *NotificationQueue) Notify(_ context.Context, n Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.limit {
		q.items = q.items[1:]
	}
	q.items = append(q.items, n)
}

// Drain returns all queued notifications and empties the queue.
func (q *NotificationQueue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.items
	q.items = nil
	return out
}

// Len returns the number of queued notifications.
func (q *NotificationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
