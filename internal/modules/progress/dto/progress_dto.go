package dto

import (
	"anoa.com/housecup/internal/entity"
	badgeDto "anoa.com/housecup/internal/modules/badge/dto"
)

type LogProgressRequest struct {
	Category   string `json:"category" binding:"required,oneof=study exercise reading project wellbeing"`
	Intensity  int    `json:"intensity" binding:"required,min=1,max=4"`
	Note       string `json:"note" binding:"max=500"`
	Date       string `json:"date" binding:"omitempty,datetime=2006-01-02"` // defaults to today
	AutoShared bool   `json:"auto_shared"`
}

type ListProgressQuery struct {
	From  string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To    string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Limit int64  `form:"limit,default=100" binding:"min=1,max=366"`
}

type StreakResponse struct {
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
	LastLogDate   *string `json:"last_log_date"`
}

type LogProgressResponse struct {
	Log           entity.ProgressLog     `json:"log"`
	Streak        StreakResponse         `json:"streak"`
	PointsAwarded int                    `json:"points_awarded"`
	NewBadges     []badgeDto.AwardResult `json:"new_badges"`
}
