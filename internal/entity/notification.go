package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationBadgeEarned     = "badge_earned"
	NotificationPostLiked       = "post_liked"
	NotificationPostCommented   = "post_commented"
	NotificationStreakMilestone = "streak_milestone"
)

type Notification struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_notification_user_read,priority:1" json:"user_id"` // recipient
	ActorID    *uuid.UUID `gorm:"type:uuid" json:"actor_id,omitempty"`                                           // nil for system events
	EntityID   string     `gorm:"size:64" json:"entity_id"`                                                      // post id or badge name
	EntityType string     `gorm:"size:20;not null" json:"entity_type"`
	Type       string     `gorm:"size:30;not null" json:"type"`
	Message    string     `gorm:"type:text" json:"message"`
	IsRead     bool       `gorm:"default:false;index:idx_notification_user_read,priority:2" json:"is_read"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
