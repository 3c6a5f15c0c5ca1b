package dto

import "anoa.com/housecup/internal/entity"

const (
	StatusAwarded        = "awarded"
	StatusAlreadyAwarded = "already_awarded"
)

// AwardResult reports the outcome of one grant attempt. Holding a badge
// already is a result, not an error.
type AwardResult struct {
	Badge  entity.BadgeType `json:"badge"`
	Status string           `json:"status"`
}
