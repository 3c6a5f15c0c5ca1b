package service

import "anoa.com/housecup/internal/entity"

// Catalog is the static badge reference data seeded at startup.
var Catalog = []entity.BadgeType{
	{Name: "first_log", Title: "First Step", Description: "Logged your first progress entry", Icon: "🌱", Category: entity.BadgeCategoryLogs, Requirement: 1},
	{Name: "50_logs", Title: "Committed", Description: "Logged 50 progress entries", Icon: "📚", Category: entity.BadgeCategoryLogs, Requirement: 50},
	{Name: "100_logs", Title: "Centurion", Description: "Logged 100 progress entries", Icon: "🏛️", Category: entity.BadgeCategoryLogs, Requirement: 100},
	{Name: "7_day_streak", Title: "Week Warrior", Description: "Kept a 7 day streak", Icon: "🔥", Category: entity.BadgeCategoryStreak, Requirement: 7},
	{Name: "30_day_streak", Title: "Monthly Master", Description: "Kept a 30 day streak", Icon: "⚡", Category: entity.BadgeCategoryStreak, Requirement: 30},
	{Name: "100_day_streak", Title: "Unstoppable", Description: "Kept a 100 day streak", Icon: "🏆", Category: entity.BadgeCategoryStreak, Requirement: 100},
}
