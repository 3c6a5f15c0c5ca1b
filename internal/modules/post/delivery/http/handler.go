package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	postDto "anoa.com/housecup/internal/modules/post/dto"
	postService "anoa.com/housecup/internal/modules/post/service"
	"anoa.com/housecup/pkg/apperror"
	commonDto "anoa.com/housecup/pkg/dto"
	"anoa.com/housecup/pkg/response"
	"anoa.com/housecup/pkg/validator"
)

type PostHandler struct {
	service postService.PostService
}

func NewPostHandler(service postService.PostService) *PostHandler {
	return &PostHandler{service: service}
}

func badRequest(err error) error {
	return apperror.New(http.StatusBadRequest, validator.FormatValidationError(err), apperror.ErrInvalidInput)
}

// CreatePost accepts JSON, or multipart form data with an optional "image" file.
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req postDto.CreatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		response.ResponseError(c, badRequest(err))
		return
	}

	var image *commonDto.ImageFile
	fileHeader, err := c.FormFile("image")
	switch {
	case err == nil:
		file, err := fileHeader.Open()
		if err != nil {
			response.ResponseError(c, apperror.New(http.StatusBadRequest, "could not read image", apperror.ErrInvalidInput))
			return
		}
		defer file.Close()
		image = &commonDto.ImageFile{Reader: file, FileName: fileHeader.Filename}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid multipart form", apperror.ErrInvalidInput))
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), userID, req, image)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.ResponseData(c, http.StatusCreated, post)
}

func (h *PostHandler) ListPosts(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var query postDto.ListPostsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, badRequest(err))
		return
	}

	posts, err := h.service.ListPosts(c.Request.Context(), userID, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) SearchPosts(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var query postDto.SearchPostsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, badRequest(err))
		return
	}

	posts, err := h.service.SearchPosts(c.Request.Context(), userID, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.ResponseData(c, http.StatusOK, posts)
}

func (h *PostHandler) GetPost(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	post, err := h.service.GetPost(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.ResponseData(c, http.StatusOK, post)
}

func (h *PostHandler) Vote(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req postDto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, badRequest(err))
		return
	}

	post, err := h.service.Vote(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.ResponseData(c, http.StatusOK, post)
}

func (h *PostHandler) React(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req postDto.ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, badRequest(err))
		return
	}

	post, err := h.service.React(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.ResponseData(c, http.StatusOK, post)
}

func (h *PostHandler) AddComment(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req postDto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, badRequest(err))
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.ResponseData(c, http.StatusCreated, comment)
}
