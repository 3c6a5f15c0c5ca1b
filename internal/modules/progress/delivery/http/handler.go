package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	progressDto "anoa.com/housecup/internal/modules/progress/dto"
	progressService "anoa.com/housecup/internal/modules/progress/service"
	"anoa.com/housecup/pkg/apperror"
	"anoa.com/housecup/pkg/response"
	"anoa.com/housecup/pkg/validator"
)

type ProgressHandler struct {
	service progressService.ProgressService
}

func NewProgressHandler(service progressService.ProgressService) *ProgressHandler {
	return &ProgressHandler{service: service}
}

func (h *ProgressHandler) LogProgress(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req progressDto.LogProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, validator.FormatValidationError(err), apperror.ErrInvalidInput))
		return
	}

	resp, err := h.service.LogProgress(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.ResponseData(c, http.StatusCreated, resp)
}

func (h *ProgressHandler) GetStreak(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	streak, err := h.service.CalculateStreak(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.ResponseData(c, http.StatusOK, progressService.ToStreakResponse(streak))
}

func (h *ProgressHandler) ListProgress(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var query progressDto.ListProgressQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, validator.FormatValidationError(err), apperror.ErrInvalidInput))
		return
	}

	logs, err := h.service.ListProgress(c.Request.Context(), userID, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.ResponseData(c, http.StatusOK, logs)
}
