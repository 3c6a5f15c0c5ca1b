package dto

import "anoa.com/housecup/internal/entity"

type RebuildStandingsResponse struct {
	WeekStart string                       `json:"week_start"`
	Standings []entity.WeeklyHouseStanding `json:"standings"`
}

type JobRunResponse struct {
	Job    string `json:"job"`
	Status string `json:"status"`
}
