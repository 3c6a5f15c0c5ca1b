package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pointsDto "anoa.com/housecup/internal/modules/points/dto"
	pointsService "anoa.com/housecup/internal/modules/points/service"
	"anoa.com/housecup/pkg/apperror"
	"anoa.com/housecup/pkg/response"
	"anoa.com/housecup/pkg/validator"
)

type PointsHandler struct {
	service pointsService.PointsService
}

func NewPointsHandler(service pointsService.PointsService) *PointsHandler {
	return &PointsHandler{service: service}
}

func (h *PointsHandler) GetMySummary(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	summary, err := h.service.GetUserSummary(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.ResponseData(c, http.StatusOK, summary)
}

func (h *PointsHandler) ListMyTransactions(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var query pointsDto.TransactionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, validator.FormatValidationError(err), apperror.ErrInvalidInput))
		return
	}

	result, err := h.service.ListUserTransactions(c.Request.Context(), userID, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
