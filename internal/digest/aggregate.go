// Package digest folds raw notification events into the merged,
// countable view shown in the notification panel.
package digest

import (
	"fmt"
	"sort"
	"time"

	"humancanvas/internal/common"
)

// Item is one entry of the rendered digest. It represents one or more
// underlying notification events merged by type and reference.
type Item struct {
	Key                string                  `json:"key"`
	Type               common.NotificationType `json:"type"`
	ReferenceID        *string                 `json:"reference_id,omitempty"`
	ActorID            *string                 `json:"actor_id,omitempty"`
	ImageURL           *string                 `json:"image_url,omitempty"`
	MemberIDs          []string                `json:"member_ids"`
	LatestCreatedAt    time.Time               `json:"latest_created_at"`
	HasUnread          bool                    `json:"has_unread"`
	HasUnseen          bool                    `json:"has_unseen"`
	DistinctActorCount int                     `json:"distinct_actor_count"`
	Title              string                  `json:"title"`
	Message            string                  `json:"message"`
}

// foldable reports whether an event may be merged with others of the
// same type and reference. Events missing a type or creation time are
// treated as singletons so a partial row can never break the fold.
func foldable(n common.Notification) bool {
	if n.Type == "" || n.CreatedAt.IsZero() {
		return false
	}
	return n.Type.Aggregable() && n.ReferenceID != nil && *n.ReferenceID != ""
}

// Aggregate folds the given events into digest items ordered by latest
// member creation time, newest first. The input is expected in
// descending created-at order; ties keep their input order. The fold is
// pure and deterministic: the same input always yields the same items.
func Aggregate(events []common.Notification) []Item {
	groups := make(map[string]*Item)
	actors := make(map[string]map[string]struct{})
	var order []*Item

	for _, ev := range events {
		if !foldable(ev) {
			item := singleton(ev)
			order = append(order, item)
			continue
		}

		key := fmt.Sprintf("%s:%s", ev.Type, *ev.ReferenceID)
		item, ok := groups[key]
		if !ok {
			item = &Item{
				Key:             key,
				Type:            ev.Type,
				ReferenceID:     ev.ReferenceID,
				ActorID:         ev.ActorID,
				ImageURL:        ev.ImageURL,
				LatestCreatedAt: ev.CreatedAt,
				Title:           ev.Title,
				Message:         ev.Message,
			}
			groups[key] = item
			actors[key] = make(map[string]struct{})
			order = append(order, item)
		}

		item.MemberIDs = append(item.MemberIDs, ev.ID)
		item.HasUnread = item.HasUnread || !ev.IsRead
		item.HasUnseen = item.HasUnseen || !ev.IsClicked
		if ev.ActorID != nil && *ev.ActorID != "" {
			actors[key][*ev.ActorID] = struct{}{}
		}
		if ev.CreatedAt.After(item.LatestCreatedAt) {
			item.LatestCreatedAt = ev.CreatedAt
			item.ActorID = ev.ActorID
			item.ImageURL = ev.ImageURL
			item.Title = ev.Title
			item.Message = ev.Message
		}
	}

	for key, item := range groups {
		item.DistinctActorCount = len(actors[key])
		if item.DistinctActorCount == 0 {
			// No actor attribution at all: the member count is the
			// closest honest number we can show.
			item.DistinctActorCount = len(item.MemberIDs)
		}
		if item.DistinctActorCount > 1 {
			if title, msg, ok := aggregateStrings(item.Type, item.DistinctActorCount); ok {
				item.Title = title
				item.Message = msg
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].LatestCreatedAt.After(order[j].LatestCreatedAt)
	})

	items := make([]Item, len(order))
	for i, it := range order {
		items[i] = *it
	}
	return items
}

func singleton(ev common.Notification) *Item {
	return &Item{
		Key:                ev.ID,
		Type:               ev.Type,
		ReferenceID:        ev.ReferenceID,
		ActorID:            ev.ActorID,
		ImageURL:           ev.ImageURL,
		MemberIDs:          []string{ev.ID},
		LatestCreatedAt:    ev.CreatedAt,
		HasUnread:          !ev.IsRead,
		HasUnseen:          !ev.IsClicked,
		DistinctActorCount: 1,
		Title:              ev.Title,
		Message:            ev.Message,
	}
}

func aggregateStrings(t common.NotificationType, actorCount int) (string, string, bool) {
	switch t {
	case common.TypeLike:
		return fmt.Sprintf("%d people liked your artwork", actorCount),
			fmt.Sprintf("Your artwork received likes from %d people", actorCount), true
	case common.TypeComment:
		return fmt.Sprintf("%d people commented on your artwork", actorCount),
			fmt.Sprintf("Your artwork received comments from %d people", actorCount), true
	case common.TypeReply:
		return fmt.Sprintf("%d people replied to your comment", actorCount),
			fmt.Sprintf("Your comment received replies from %d people", actorCount), true
	case common.TypeMention:
		return fmt.Sprintf("%d people mentioned you", actorCount),
			fmt.Sprintf("You were mentioned by %d people", actorCount), true
	case common.TypeShare:
		return fmt.Sprintf("%d people shared your artwork", actorCount),
			fmt.Sprintf("Your artwork was shared by %d people", actorCount), true
	case common.TypeFollow:
		return fmt.Sprintf("%d people started following you", actorCount),
			fmt.Sprintf("You gained %d new followers", actorCount), true
	}
	return "", "", false
}

// BadgeCount is the number shown on the bell badge: the count of raw
// unread events, not the count of folded items. One digest item can
// stand for many unread events.
func BadgeCount(events []common.Notification) int {
	count := 0
	for _, ev := range events {
		if !ev.IsRead {
			count++
		}
	}
	return count
}

// NavigationTarget resolves where activating this item should take the
// user. The boolean is false when the item has nowhere to go.
func (it Item) NavigationTarget() (string, bool) {
	switch it.Type {
	case common.TypeLike, common.TypeComment, common.TypeShare:
		if it.ReferenceID != nil && *it.ReferenceID != "" {
			return "/community?post=" + *it.ReferenceID, true
		}
		return "", false
	case common.TypeFollow:
		if it.ActorID != nil && *it.ActorID != "" {
			return "/profile/" + *it.ActorID, true
		}
		return "", false
	default:
		if it.ReferenceID != nil && *it.ReferenceID != "" {
			return "/community?post=" + *it.ReferenceID, true
		}
		return "", false
	}
}

// RelativeTime renders a short "how long ago" label for a timestamp.
func RelativeTime(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
