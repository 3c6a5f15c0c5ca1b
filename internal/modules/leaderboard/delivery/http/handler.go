package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"anoa.com/housecup/internal/entity"
	leaderboardDto "anoa.com/housecup/internal/modules/leaderboard/dto"
	leaderboardService "anoa.com/housecup/internal/modules/leaderboard/service"
	"anoa.com/housecup/pkg/apperror"
	"anoa.com/housecup/pkg/response"
	"anoa.com/housecup/pkg/validator"
)

type LeaderboardHandler struct {
	service leaderboardService.LeaderboardService
}

func NewLeaderboardHandler(service leaderboardService.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) GetWeekly(c *gin.Context) {
	board, err := h.service.GetWeeklyHouseLeaderboard(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.ResponseData(c, http.StatusOK, board)
}

func (h *LeaderboardHandler) GetAllTime(c *gin.Context) {
	standings, err := h.service.GetAllTimeHouseStandings(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.ResponseData(c, http.StatusOK, standings)
}

func (h *LeaderboardHandler) GetContributors(c *gin.Context) {
	var query leaderboardDto.ContributorsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, validator.FormatValidationError(err), apperror.ErrInvalidInput))
		return
	}

	contributors, err := h.service.GetHouseTopContributors(c.Request.Context(), entity.House(c.Param("house")), query.Limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.ResponseData(c, http.StatusOK, contributors)
}
