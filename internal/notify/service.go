package notify

import (
	"context"
	"fmt"

	clog "github.com/charmbracelet/log"
	"github.com/google/uuid"

	"humancanvas/internal/common"
	"humancanvas/internal/config"
	"humancanvas/internal/digest"
)

// Service is the notification producer and query surface: it shapes
// domain events into notifications, dispatches them to persistence and
// the live feed, and answers digest queries.
type Service struct {
	dispatcher *Dispatcher
	store      common.NotificationStore
	feed       common.ChangeFeed
	clock      common.Clock
	log        *clog.Logger
	fetchLimit int
}

func NewService(
	cfg *config.Config,
	store common.NotificationStore,
	feed common.ChangeFeed,
	clock common.Clock,
	logger *clog.Logger,
) *Service {
	dispatcher := NewDispatcher(cfg.Notification.Workers, cfg.Notification.ChannelBufferSize, logger)
	dispatcher.Register(NewStoreObserver(store))
	dispatcher.Register(NewFeedObserver(feed))

	return &Service{
		dispatcher: dispatcher,
		store:      store,
		feed:       feed,
		clock:      clock,
		log:        logger.With("component", "notify"),
		fetchLimit: cfg.Notification.FetchLimit,
	}
}

// Publish validates the notification, assigns identity and creation
// time, and enqueues it for the dispatcher's worker pool. Persistence
// and feed delivery happen off the caller's goroutine.
func (s *Service) Publish(ctx context.Context, n common.Notification) (string, error) {
	if err := validate(n); err != nil {
		return "", fmt.Errorf("invalid notification: %w", err)
	}

	n.ID = uuid.NewString()
	n.CreatedAt = s.clock.Now()
	n.UpdatedAt = n.CreatedAt

	s.dispatcher.DispatchAsync(n)
	s.log.Debug("notification published", "type", n.Type, "user", n.UserID)
	return n.ID, nil
}

// SendLikeNotification notifies an artwork's owner about a new like.
// Liking your own artwork is silently ignored.
func (s *Service) SendLikeNotification(ctx context.Context, postID, ownerID, likerID, likerHandle string) error {
	if ownerID == likerID {
		return nil
	}

	_, err := s.Publish(ctx, common.Notification{
		UserID:      ownerID,
		ActorID:     &likerID,
		Type:        common.TypeLike,
		ReferenceID: &postID,
		Title:       "New like",
		Message:     fmt.Sprintf("%s liked your artwork", likerHandle),
	})
	return err
}

// SendCommentNotification notifies an artwork's owner about a new
// comment.
func (s *Service) SendCommentNotification(ctx context.Context, postID, ownerID, commenterID, commenterHandle string) error {
	if ownerID == commenterID {
		return nil
	}

	_, err := s.Publish(ctx, common.Notification{
		UserID:      ownerID,
		ActorID:     &commenterID,
		Type:        common.TypeComment,
		ReferenceID: &postID,
		Title:       "New comment",
		Message:     fmt.Sprintf("%s commented on your artwork", commenterHandle),
	})
	return err
}

// SendFollowNotification notifies a user about a new follower. By
// producer convention the reference is the follower's own id, so
// repeated follow/unfollow cycles fold into one digest item.
func (s *Service) SendFollowNotification(ctx context.Context, targetID, followerID, followerHandle string) error {
	_, err := s.Publish(ctx, common.Notification{
		UserID:      targetID,
		ActorID:     &followerID,
		Type:        common.TypeFollow,
		ReferenceID: &followerID,
		Title:       "New follower",
		Message:     fmt.Sprintf("%s started following you", followerHandle),
	})
	return err
}

// SendSystemNotification delivers a free-form notification. These are
// never folded in the digest.
func (s *Service) SendSystemNotification(ctx context.Context, userID string, kind common.NotificationType, title, message string) error {
	_, err := s.Publish(ctx, common.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
	})
	return err
}

// ListForUser returns the user's raw notification window, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]common.Notification, error) {
	events, err := s.store.ByUserID(ctx, userID, s.fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return events, nil
}

// Digest folds the user's window into digest items.
func (s *Service) Digest(ctx context.Context, userID string) ([]digest.Item, error) {
	events, err := s.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return digest.Aggregate(events), nil
}

// BadgeCount is the exact unread event count for the bell badge.
func (s *Service) BadgeCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get badge count: %w", err)
	}
	return count, nil
}

// MarkAllRead flips every unread notification in the user's window to
// read and publishes the updates on the change feed.
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	events, err := s.store.ByUserID(ctx, userID, s.fetchLimit)
	if err != nil {
		return fmt.Errorf("failed to list notifications: %w", err)
	}

	var unread []common.Notification
	for _, ev := range events {
		if !ev.IsRead {
			unread = append(unread, ev)
		}
	}
	if len(unread) == 0 {
		return nil
	}

	ids := make([]string, len(unread))
	for i, ev := range unread {
		ids[i] = ev.ID
	}
	if err := s.store.BulkMarkRead(ctx, ids); err != nil {
		return fmt.Errorf("failed to mark all read: %w", err)
	}

	for _, ev := range unread {
		ev.IsRead = true
		s.feed.Publish(userID, common.ChangeEvent{Kind: common.ChangeUpdate, Notification: ev})
	}
	return nil
}

// MarkClicked flips is_clicked on the given member ids and publishes
// the updates on the change feed. Ids not belonging to the user are
// rejected.
func (s *Service) MarkClicked(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	events, err := s.store.ByUserID(ctx, userID, s.fetchLimit)
	if err != nil {
		return fmt.Errorf("failed to list notifications: %w", err)
	}

	owned := make(map[string]common.Notification, len(events))
	for _, ev := range events {
		owned[ev.ID] = ev
	}

	var members []common.Notification
	for _, id := range ids {
		ev, ok := owned[id]
		if !ok {
			return fmt.Errorf("notification %s does not belong to user %s", id, userID)
		}
		members = append(members, ev)
	}

	if err := s.store.BulkMarkClicked(ctx, ids); err != nil {
		return fmt.Errorf("failed to mark clicked: %w", err)
	}

	for _, ev := range members {
		ev.IsClicked = true
		s.feed.Publish(userID, common.ChangeEvent{Kind: common.ChangeUpdate, Notification: ev})
	}
	return nil
}

func validate(n common.Notification) error {
	if n.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if n.Type == "" {
		return fmt.Errorf("type is required")
	}
	if n.Title == "" {
		return fmt.Errorf("title is required")
	}
	if n.Message == "" {
		return fmt.Errorf("message is required")
	}
	return nil
}

func (s *Service) Shutdown() {
	s.dispatcher.Shutdown()
}
