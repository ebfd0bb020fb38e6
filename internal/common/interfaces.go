package common

import (
	"context"
	"time"
)

// NotificationStore is the persistence boundary for notification events.
type NotificationStore interface {
	Create(ctx context.Context, n *Notification) error
	ByID(ctx context.Context, id string) (*Notification, error)
	ByUserID(ctx context.Context, userID string, limit int) ([]Notification, error)
	BulkMarkRead(ctx context.Context, ids []string) error
	BulkMarkClicked(ctx context.Context, ids []string) error
	UnreadCount(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id string) error
}

// ChangeFeed delivers per-user notification change events to live
// subscribers. Unsubscribe via the returned function when done.
type ChangeFeed interface {
	Subscribe(userID string) (<-chan ChangeEvent, func())
	Publish(userID string, ev ChangeEvent)
}

// Observer receives freshly published notifications from the dispatcher.
type Observer interface {
	Name() string
	Update(n Notification) error
}

type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock used outside of tests.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
