package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	profileService "anoa.com/housecup/internal/modules/profile/service"
	"anoa.com/housecup/pkg/response"
)

type ProfileHandler struct {
	service profileService.ProfileService
}

func NewProfileHandler(service profileService.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) GetCurrentProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	profile, err := h.service.GetCurrentProfile(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.ResponseData(c, http.StatusOK, profile)
}
