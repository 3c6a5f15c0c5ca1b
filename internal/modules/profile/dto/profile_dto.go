package dto

import (
	"time"

	"anoa.com/housecup/internal/entity"
	commonDto "anoa.com/housecup/pkg/dto"
)

type StreakSummary struct {
	Current     int        `json:"current"`
	Longest     int        `json:"longest"`
	LastLogDate *time.Time `json:"last_log_date,omitempty"`
}

type EarnedBadge struct {
	Name     string    `json:"name"`
	Title    string    `json:"title"`
	Icon     string    `json:"icon"`
	EarnedAt time.Time `json:"earned_at"`
}

// ProfileResponse is the caller's own profile with every derived status.
type ProfileResponse struct {
	ID                 string                       `json:"id"`
	Username           string                       `json:"username"`
	House              entity.House                 `json:"house"`
	Role               string                       `json:"role"`
	AvatarURL          *string                      `json:"avatar_url,omitempty"`
	JoinedAt           time.Time                    `json:"joined_at"`
	GamificationStatus commonDto.GamificationStatus `json:"gamification_status"`
	Streak             StreakSummary                `json:"streak"`
	Badges             []EarnedBadge                `json:"badges"`
}
