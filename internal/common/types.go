package common

import (
	"time"
)

type NotificationType string

const (
	TypeLike    NotificationType = "like"
	TypeComment NotificationType = "comment"
	TypeReply   NotificationType = "reply"
	TypeMention NotificationType = "mention"
	TypeShare   NotificationType = "share"
	TypeFollow  NotificationType = "follow"

	// Free-form kinds produced by system flows. Never aggregated.
	TypeSuccess NotificationType = "success"
	TypeError   NotificationType = "error"
	TypeWarning NotificationType = "warning"
)

// Aggregable reports whether events of this type may be folded together
// with other events sharing the same reference.
func (t NotificationType) Aggregable() bool {
	switch t {
	case TypeLike, TypeComment, TypeReply, TypeMention, TypeShare, TypeFollow:
		return true
	}
	return false
}

// Notification is a single per-user notification event. The read and
// clicked flags are independent: read means "seen in the list", clicked
// means "navigated to the referenced content". Both only ever flip
// false to true.
type Notification struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	ActorID     *string          `json:"actor_id,omitempty"`
	Type        NotificationType `json:"type"`
	ReferenceID *string          `json:"reference_id,omitempty"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	ImageURL    *string          `json:"image_url,omitempty"`
	IsRead      bool             `json:"is_read"`
	IsClicked   bool             `json:"is_clicked"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// ChangeEvent is one entry of the per-user notification change feed.
type ChangeEvent struct {
	Kind         ChangeKind   `json:"kind"`
	Notification Notification `json:"notification"`
}
