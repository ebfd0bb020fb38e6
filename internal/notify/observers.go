package notify

import (
	"context"
	"fmt"
	"time"

	"humancanvas/internal/common"
)

// StoreObserver persists dispatched notifications.
type StoreObserver struct {
	store   common.NotificationStore
	timeout time.Duration
}

func NewStoreObserver(store common.NotificationStore) *StoreObserver {
	return &StoreObserver{store: store, timeout: 5 * time.Second}
}

func (o *StoreObserver) Name() string { return "store_observer" }

func (o *StoreObserver) Update(n common.Notification) error {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	if err := o.store.Create(ctx, &n); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

// FeedObserver pushes dispatched notifications onto the live change
// feed so open digest sessions fold them in without waiting for the
// next reconciliation.
type FeedObserver struct {
	feed common.ChangeFeed
}

func NewFeedObserver(feed common.ChangeFeed) *FeedObserver {
	return &FeedObserver{feed: feed}
}

func (o *FeedObserver) Name() string { return "feed_observer" }

func (o *FeedObserver) Update(n common.Notification) error {
	o.feed.Publish(n.UserID, common.ChangeEvent{
		Kind:         common.ChangeInsert,
		Notification: n,
	})
	return nil
}
