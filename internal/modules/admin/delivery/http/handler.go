package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/modules/admin/dto"
	"anoa.com/housecup/pkg/apperror"
	"anoa.com/housecup/pkg/response"
)

type StandingsRebuilder interface {
	RebuildStandings(ctx context.Context) ([]entity.WeeklyHouseStanding, error)
}

type JobRunner interface {
	RunByName(ctx context.Context, name string) error
	Names() []string
}

// AdminHandler exposes maintenance operations. Routes must be guarded by
// RequireAdmin.
type AdminHandler struct {
	standings StandingsRebuilder
	jobs      JobRunner
}

func NewAdminHandler(standings StandingsRebuilder, jobs JobRunner) *AdminHandler {
	return &AdminHandler{
		standings: standings,
		jobs:      jobs,
	}
}

func (h *AdminHandler) RebuildStandings(c *gin.Context) {
	standings, err := h.standings.RebuildStandings(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res := dto.RebuildStandingsResponse{Standings: standings}
	if len(standings) > 0 {
		res.WeekStart = standings[0].WeekStart.Format(time.RFC3339)
	}
	response.ResponseData(c, http.StatusOK, res)
}

func (h *AdminHandler) ListJobs(c *gin.Context) {
	response.ResponseData(c, http.StatusOK, h.jobs.Names())
}

func (h *AdminHandler) RunJob(c *gin.Context) {
	name := c.Param("name")

	known := false
	for _, n := range h.jobs.Names() {
		if n == name {
			known = true
			break
		}
	}
	if !known {
		response.ResponseError(c, fmt.Errorf("job %q: %w", name, apperror.ErrNotFound))
		return
	}

	if err := h.jobs.RunByName(c.Request.Context(), name); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.ResponseData(c, http.StatusOK, dto.JobRunResponse{Job: name, Status: "completed"})
}
