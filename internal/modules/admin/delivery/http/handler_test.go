package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/fakes"
	"anoa.com/housecup/internal/jobs"
	adminHttp "anoa.com/housecup/internal/modules/admin/delivery/http"
	standingsService "anoa.com/housecup/internal/modules/standings/service"
	"anoa.com/housecup/pkg/clock"
)

type failingJob struct{}

func (failingJob) Name() string                { return "broken" }
func (failingJob) Schedule() string            { return "" }
func (failingJob) Run(_ context.Context) error { return errors.New("disk full") }

func setupRouter(t *testing.T, repo *fakes.Standings) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := time.Date(2024, 5, 15, 14, 0, 0, 0, time.UTC)
	ledger := fakes.NewLedger()
	require.NoError(t, ledger.Append(context.Background(), &entity.PointTransaction{
		House: entity.HousePhoenix, Reason: entity.ReasonProgressLog, Points: 5, CreatedAt: now,
	}))
	svc := standingsService.NewStandingsService(repo, ledger, fakes.Members{entity.HousePhoenix: 1}, &fakes.Invalidator{}, clock.Fixed(now), 2)

	scheduler := jobs.NewScheduler(time.Second)
	require.NoError(t, scheduler.Register(jobs.NewStandingsRebuildJob(svc, "")))
	require.NoError(t, scheduler.Register(failingJob{}))

	h := adminHttp.NewAdminHandler(svc, scheduler)
	r := gin.New()
	r.POST("/api/admin/standings/rebuild", h.RebuildStandings)
	r.GET("/api/admin/jobs", h.ListJobs)
	r.POST("/api/admin/jobs/:name/run", h.RunJob)
	return r
}

func post(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
	return w
}

func TestRebuildStandings(t *testing.T) {
	repo := fakes.NewStandings()
	r := setupRouter(t, repo)

	w := post(r, "/api/admin/standings/rebuild")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"week_start":"2024-05-13T00:00:00Z"`)
	assert.Equal(t, len(entity.Houses), repo.Upserts)
}

func TestRebuildStandingsStorageFailure(t *testing.T) {
	repo := fakes.NewStandings()
	repo.Err = errors.New("connection reset")
	r := setupRouter(t, repo)

	w := post(r, "/api/admin/standings/rebuild")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRunJob(t *testing.T) {
	repo := fakes.NewStandings()
	r := setupRouter(t, repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/jobs", nil))
	assert.JSONEq(t, `{"data":["standings-rebuild","broken"]}`, w.Body.String())

	w = post(r, "/api/admin/jobs/standings-rebuild/run")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"data":{"job":"standings-rebuild","status":"completed"}}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, post(r, "/api/admin/jobs/nope/run").Code)
	assert.Equal(t, http.StatusInternalServerError, post(r, "/api/admin/jobs/broken/run").Code)
}
