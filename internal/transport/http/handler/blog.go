package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blog-backend/internal/app"
	"blog-backend/internal/transport/http/middleware"
	"blog-backend/internal/transport/http/response"
)

type BlogHandler struct {
	postService *app.PostService
	log         *zap.Logger
}

type BlogRequest struct {
	Title   string  `json:"title" binding:"required,max=255"`
	Excerpt *string `json:"excerpt" binding:"omitempty,max=500"`
	Content string  `json:"content" binding:"required"`
}

func (r BlogRequest) input() app.PostInput {
	return app.PostInput{Title: r.Title, Excerpt: r.Excerpt, Content: r.Content}
}

func NewBlogHandler(postService *app.PostService, log *zap.Logger) *BlogHandler {
	return &BlogHandler{postService: postService, log: log}
}

func (h *BlogHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in context")
		return
	}

	var req BlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	post, err := h.postService.Create(c.Request.Context(), user, req.input())
	if err != nil {
		writeError(c, h.log, err, "create blog failed")
		return
	}
	response.Created(c, gin.H{
		"message": "Blog created successfully",
		"blog_id": post.ID,
		"slug":    post.Slug,
	})
}

func (h *BlogHandler) List(c *gin.Context) {
	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid skip")
		return
	}
	limit, err := queryInt(c, "limit", app.DefaultPageLimit)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid limit")
		return
	}

	blogs, total, err := h.postService.List(c.Request.Context(), skip, limit)
	if err != nil {
		writeError(c, h.log, err, "list blogs failed")
		return
	}
	response.OK(c, gin.H{
		"blogs":       blogs,
		"total_count": total,
	})
}

func (h *BlogHandler) Get(c *gin.Context) {
	view, err := h.postService.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, h.log, err, "get blog failed")
		return
	}
	response.OK(c, view)
}

func (h *BlogHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in context")
		return
	}

	var req BlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if err := h.postService.Update(c.Request.Context(), user, c.Param("slug"), req.input()); err != nil {
		writeError(c, h.log, err, "update blog failed")
		return
	}
	response.OK(c, gin.H{"message": "Blog updated successfully"})
}

func (h *BlogHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in context")
		return
	}

	if err := h.postService.Delete(c.Request.Context(), user, c.Param("slug")); err != nil {
		writeError(c, h.log, err, "delete blog failed")
		return
	}
	response.OK(c, gin.H{"message": "Blog deleted successfully"})
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
