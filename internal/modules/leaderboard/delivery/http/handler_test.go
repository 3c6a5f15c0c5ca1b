package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/fakes"
	leaderboardHttp "anoa.com/housecup/internal/modules/leaderboard/delivery/http"
	leaderboardService "anoa.com/housecup/internal/modules/leaderboard/service"
	"anoa.com/housecup/pkg/clock"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ledger := fakes.NewLedger()
	nova := uuid.New()
	ledger.SetUsername(nova, "nova")
	require.NoError(t, ledger.Append(context.Background(), &entity.PointTransaction{
		UserID: nova, House: entity.HouseKraken, Points: 60, CreatedAt: time.Now(),
	}))

	members := fakes.Members{entity.HouseKraken: 2}
	svc := leaderboardService.NewLeaderboardService(fakes.NewStandings(), ledger, members, nil,
		clock.Fixed(time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)))
	h := leaderboardHttp.NewLeaderboardHandler(svc)

	r := gin.New()
	r.GET("/api/leaderboard/weekly", h.GetWeekly)
	r.GET("/api/leaderboard/all-time", h.GetAllTime)
	r.GET("/api/houses/:house/contributors", h.GetContributors)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLeaderboardEndpoints(t *testing.T) {
	r := setupRouter(t)

	w := get(r, "/api/leaderboard/weekly")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var weekly struct {
		Data struct {
			WeekStart string `json:"week_start"`
			Houses    []struct {
				House string `json:"house"`
			} `json:"houses"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &weekly))
	assert.Equal(t, "2024-05-13T00:00:00Z", weekly.Data.WeekStart)
	assert.Len(t, weekly.Data.Houses, 4)

	w = get(r, "/api/leaderboard/all-time")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var allTime struct {
		Data struct {
			Houses []struct {
				House           string `json:"house"`
				TotalPoints     int    `json:"total_points"`
				PointsPerMember int    `json:"points_per_member"`
			} `json:"houses"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &allTime))
	require.Len(t, allTime.Data.Houses, 4)
	assert.Equal(t, "kraken", allTime.Data.Houses[0].House)
	assert.Equal(t, 30, allTime.Data.Houses[0].PointsPerMember)

	w = get(r, "/api/houses/kraken/contributors?limit=5")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"username":"nova"`)
	assert.Contains(t, w.Body.String(), `"rank_name":"Apprentice"`)
}

func TestContributorsValidation(t *testing.T) {
	r := setupRouter(t)

	assert.Equal(t, http.StatusBadRequest, get(r, "/api/houses/kraken/contributors?limit=0").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/api/houses/kraken/contributors?limit=99").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/api/houses/owls/contributors").Code)
}
