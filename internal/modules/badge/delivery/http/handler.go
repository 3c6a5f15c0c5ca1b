package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	badgeService "anoa.com/housecup/internal/modules/badge/service"
	"anoa.com/housecup/pkg/response"
)

type BadgeHandler struct {
	service badgeService.BadgeService
}

func NewBadgeHandler(service badgeService.BadgeService) *BadgeHandler {
	return &BadgeHandler{service: service}
}

func (h *BadgeHandler) ListBadgeTypes(c *gin.Context) {
	types, err := h.service.ListBadgeTypes(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.ResponseData(c, http.StatusOK, types)
}

func (h *BadgeHandler) ListMyBadges(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	badges, err := h.service.ListUserBadges(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.ResponseData(c, http.StatusOK, badges)
}
