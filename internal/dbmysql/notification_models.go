package dbmysql

import (
	"time"

	"humancanvas/internal/common"
)

// Notification is the notifications table row. Rows are append-only
// except for the is_read and is_clicked flags, which only ever flip to
// true.
type Notification struct {
	ID          string    `gorm:"primaryKey;size:36"`
	UserID      string    `gorm:"not null;index;size:36"`
	ActorID     *string   `gorm:"size:36"`
	Type        string    `gorm:"not null;size:50"`
	ReferenceID *string   `gorm:"size:36;index"`
	Title       string    `gorm:"not null;size:255"`
	Message     string    `gorm:"not null;type:text"`
	ImageURL    *string   `gorm:"size:512"`
	IsRead      bool      `gorm:"not null;default:false;index"`
	IsClicked   bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (n *Notification) toCommon() common.Notification {
	return common.Notification{
		ID:          n.ID,
		UserID:      n.UserID,
		ActorID:     n.ActorID,
		Type:        common.NotificationType(n.Type),
		ReferenceID: n.ReferenceID,
		Title:       n.Title,
		Message:     n.Message,
		ImageURL:    n.ImageURL,
		IsRead:      n.IsRead,
		IsClicked:   n.IsClicked,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

func fromCommon(n *common.Notification) *Notification {
	return &Notification{
		ID:          n.ID,
		UserID:      n.UserID,
		ActorID:     n.ActorID,
		Type:        string(n.Type),
		ReferenceID: n.ReferenceID,
		Title:       n.Title,
		Message:     n.Message,
		ImageURL:    n.ImageURL,
		IsRead:      n.IsRead,
		IsClicked:   n.IsClicked,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}
