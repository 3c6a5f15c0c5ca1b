package http_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/fakes"
	pointsService "anoa.com/housecup/internal/modules/points/service"
	postHttp "anoa.com/housecup/internal/modules/post/delivery/http"
	postService "anoa.com/housecup/internal/modules/post/service"
	view "anoa.com/housecup/internal/modules/view/service"
	"anoa.com/housecup/pkg/clock"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	userID := uuid.New()
	users := fakes.NewUsers(entity.User{ID: userID, Username: "sam", House: entity.HouseGriffin, IsActive: true})
	clk := clock.Fixed(time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC))
	posts := fakes.NewPosts()
	points := pointsService.NewPointsService(fakes.NewLedger(), nil, clk)
	svc := postService.NewPostService(posts, users, points, &fakes.Notifier{}, view.NewViewService(client, posts), nil, nil, "housecup", clk)
	h := postHttp.NewPostHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID.String())
		c.Next()
	})
	r.GET("/api/posts", h.ListPosts)
	r.POST("/api/posts", h.CreatePost)
	r.GET("/api/posts/search", h.SearchPosts)
	r.GET("/api/posts/:id", h.GetPost)
	r.POST("/api/posts/:id/vote", h.Vote)
	r.POST("/api/posts/:id/react", h.React)
	r.POST("/api/posts/:id/comments", h.AddComment)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createPost(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := do(r, http.MethodPost, "/api/posts", `{"title":"Exam prep","content":"Who is in?"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.ID
}

func TestPostLifecycleEndpoints(t *testing.T) {
	r := setupRouter(t)
	id := createPost(t, r)

	w := do(r, http.MethodPost, "/api/posts/"+id+"/vote", `{"direction":"up"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"user_vote":"up"`)

	w = do(r, http.MethodPost, "/api/posts/"+id+"/react", `{"kind":"fire"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"user_reactions":["fire"]`)

	w = do(r, http.MethodPost, "/api/posts/"+id+"/comments", `{"content":"me!"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/posts/"+id, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var detail struct {
		Data struct {
			Views    int `json:"views"`
			Comments []struct {
				Content string `json:"content"`
			} `json:"comments"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, 1, detail.Data.Views)
	require.Len(t, detail.Data.Comments, 1)
	assert.Equal(t, "me!", detail.Data.Comments[0].Content)

	w = do(r, http.MethodGet, "/api/posts?sort=top&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list struct {
		Data []struct {
			ID    string  `json:"id"`
			Score float64 `json:"score"`
		} `json:"data"`
		Meta struct {
			TotalItems int64 `json:"total_items"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, id, list.Data[0].ID)
	assert.Equal(t, 2.0, list.Data[0].Score)
	assert.Equal(t, int64(1), list.Meta.TotalItems)
}

func TestCreatePostMultipart(t *testing.T) {
	r := setupRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Poster"))
	require.NoError(t, mw.WriteField("content", "See attached"))
	part, err := mw.CreateFormFile("image", "poster.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/posts", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// Uploads are disabled without an image store.
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"image uploads are not enabled"}`, w.Body.String())
}

func TestPostEndpointValidation(t *testing.T) {
	r := setupRouter(t)
	id := createPost(t, r)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"missing title", http.MethodPost, "/api/posts", `{"content":"x"}`, http.StatusBadRequest},
		{"bad sort", http.MethodGet, "/api/posts?sort=random", "", http.StatusBadRequest},
		{"limit too high", http.MethodGet, "/api/posts?limit=500", "", http.StatusBadRequest},
		{"bad vote", http.MethodPost, "/api/posts/" + id + "/vote", `{"direction":"left"}`, http.StatusBadRequest},
		{"bad reaction", http.MethodPost, "/api/posts/" + id + "/react", `{"kind":"heart"}`, http.StatusBadRequest},
		{"unknown post", http.MethodGet, "/api/posts/nope", "", http.StatusNotFound},
		{"search without query", http.MethodGet, "/api/posts/search", "", http.StatusBadRequest},
		{"search disabled", http.MethodGet, "/api/posts/search?q=exam", "", http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}
