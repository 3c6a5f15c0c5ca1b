package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	BadgeCategoryStreak = "streak"
	BadgeCategoryLogs   = "logs"
)

// BadgeType is static reference data keyed by Name.
type BadgeType struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Title       string    `gorm:"size:100;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Icon        string    `gorm:"size:20" json:"icon"`
	Category    string    `gorm:"size:20;not null;index" json:"category"`
	Requirement int       `gorm:"not null" json:"requirement"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (BadgeType) TableName() string {
	return "badge_types"
}

// UserBadge is a grant. (UserID, BadgeTypeID) is unique at the storage layer.
type UserBadge struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge_unique,priority:1" json:"user_id"`
	BadgeTypeID uint      `gorm:"not null;uniqueIndex:idx_user_badge_unique,priority:2" json:"badge_type_id"`
	BadgeType   BadgeType `gorm:"foreignKey:BadgeTypeID" json:"badge"`
	AwardedAt   time.Time `gorm:"not null" json:"awarded_at"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}
