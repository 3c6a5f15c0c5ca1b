package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Reason string

const (
	ReasonProgressLog    Reason = "PROGRESS_LOG"
	ReasonPostCreated    Reason = "POST_CREATED"
	ReasonCommentCreated Reason = "COMMENT_CREATED"
	ReasonPostLiked      Reason = "POST_LIKED"
	ReasonStreak7        Reason = "STREAK_7"
	ReasonStreak30       Reason = "STREAK_30"
	ReasonStreak100      Reason = "STREAK_100"
	ReasonBadgeEarned    Reason = "BADGE_EARNED"
)

// PointTransaction is one immutable ledger row. Every point total is derived from these rows.
type PointTransaction struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_point_tx_user_date,priority:1" json:"user_id"`
	User        User           `gorm:"foreignKey:UserID" json:"-"`
	House       House          `gorm:"size:20;not null;index:idx_point_tx_house_date,priority:1" json:"house"`
	Points      int            `gorm:"not null" json:"points"`
	Reason      Reason         `gorm:"size:30;not null;index" json:"reason"`
	Description *string        `gorm:"type:text" json:"description,omitempty"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"` // e.g. {"post_id": "..."}
	CreatedAt   time.Time      `gorm:"not null;index:idx_point_tx_user_date,priority:2;index:idx_point_tx_house_date,priority:2" json:"created_at"`

	// IdempotencyKey is set for awards that may be paid at most once.
	IdempotencyKey *string `gorm:"size:160;uniqueIndex" json:"-"`
}

func (PointTransaction) TableName() string {
	return "point_transactions"
}

func (p *PointTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}

// WeeklyHouseStanding caches a house's totals for one Monday-to-Sunday week.
type WeeklyHouseStanding struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	House         House     `gorm:"size:20;not null;uniqueIndex:idx_standing_house_week,priority:1" json:"house"`
	WeekStart     time.Time `gorm:"not null;uniqueIndex:idx_standing_house_week,priority:2" json:"week_start"`
	WeekEnd       time.Time `gorm:"not null" json:"week_end"`
	TotalPoints   int       `gorm:"not null;default:0" json:"total_points"`
	MemberCount   int       `gorm:"not null;default:0" json:"member_count"`
	PostCount     int       `gorm:"not null;default:0" json:"post_count"`
	ProgressCount int       `gorm:"not null;default:0" json:"progress_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (WeeklyHouseStanding) TableName() string {
	return "weekly_house_standings"
}
