package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quailbyte/sociable/config"
	"github.com/quailbyte/sociable/content"
	mw "github.com/quailbyte/sociable/middleware"
	"github.com/quailbyte/sociable/model"
	"github.com/quailbyte/sociable/social"
	"go.uber.org/zap"
)

// PostHandler handles post, comment and vote REST endpoints.
type PostHandler struct {
	content  *content.Service
	profiles *social.Profiles
	social   config.SocialConfig
	logger   *zap.Logger
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(
	contentSvc *content.Service,
	profiles *social.Profiles,
	socialCfg config.SocialConfig,
	logger *zap.Logger,
) *PostHandler {
	return &PostHandler{content: contentSvc, profiles: profiles, social: socialCfg, logger: logger}
}

func (h *PostHandler) currentProfile(c *gin.Context) (*model.Profile, bool) {
	profile, err := h.profiles.GetByUser(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no profile for user"})
		return nil, false
	}
	return profile, true
}

func postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// contentStatus maps content errors to HTTP status codes.
func contentStatus(err error) int {
	switch {
	case errors.Is(err, content.ErrPostNotFound),
		errors.Is(err, content.ErrCommentNotFound):
		return http.StatusNotFound
	case errors.Is(err, content.ErrNotVisible):
		// Hidden content is indistinguishable from missing content.
		return http.StatusNotFound
	case errors.Is(err, content.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, content.ErrInvalidStars):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *PostHandler) fail(c *gin.Context, err error) {
	status := contentStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("content operation failed", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

type createPostRequest struct {
	Title   string `json:"title" binding:"required,min=1,max=200"`
	Content string `json:"content" binding:"required"`
}

// Create handles POST /api/posts.
func (h *PostHandler) Create(c *gin.Context) {
	actor, ok := h.currentProfile(c)
	if !ok {
		return
	}
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Content) > h.social.MaxPostLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post too long"})
		return
	}

	post, err := h.content.CreatePost(c.Request.Context(), actor.ID, req.Title, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// Get handles GET /api/posts/:id.
func (h *PostHandler) Get(c *gin.Context) {
	actor, ok := h.currentProfile(c)
	if !ok {
		return
	}
	id, ok := postID(c)
	if !ok {
		return
	}
	post, err := h.content.GetPost(c.Request.Context(), actor.ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	score, err := h.content.PostScore(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post, "score": score})
}

// ListByAuthor handles GET /api/posts/by/:uid.
func (h *PostHandler) ListByAuthor(c *gin.Context) {
	actor, ok := h.currentProfile(c)
	if !ok {
		return
	}
	author, err := h.profiles.GetByUID(c.Request.Context(), c.Param("uid"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	posts, err := h.content.ListPosts(c.Request.Context(), actor.ID, author.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}

// Delete handles DELETE /api/posts/:id.
func (h *PostHandler) Delete(c *gin.Context) {
	actor, ok := h.currentProfile(c)
	if !ok {
		return
	}
	id, ok := postID(c)
	if !ok {
		return
	}
	if err := h.content.DeletePost(c.Request.Context(), actor.ID, id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

type commentRequest struct {
	Content string `json:"content" binding:"required,min=1"`
}

// AddComment handles POST /api/posts/:id/comments.
func (h *PostHandler) AddComment(c *gin.Context) {
	actor, ok := h.currentProfile(c)
	if !ok {
		return
	}
	id, ok := postID(c)
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Content) > h.social.MaxCommentLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "comment too long"})
		return
	}

	comment, err := h.content.AddComment(c.Request.Context(), actor.ID, id, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// ListComments handles GET /api/posts/:id/comments.
func (h *PostHandler) ListComments(c *gin.Context) {
	actor, ok := h.currentProfile(c)
	if !ok {
		return
	}
	id, ok := postID(c)
	if !ok {
		return
	}
	comments, err := h.content.ListComments(c.Request.Context(), actor.ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments, "count": len(comments)})
}

// DeleteComment handles DELETE /api/comments/:id.
func (h *PostHandler) DeleteComment(c *gin.Context) {
	actor, ok := h.currentProfile(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.content.DeleteComment(c.Request.Context(), actor.ID, id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}

type voteRequest struct {
	Stars int `json:"stars" binding:"required"`
}

// Vote handles POST /api/posts/:id/vote.
// Repeating the current star value retracts the vote.
func (h *PostHandler) Vote(c *gin.Context) {
	actor, ok := h.currentProfile(c)
	if !ok {
		return
	}
	id, ok := postID(c)
	if !ok {
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.content.Vote(c.Request.Context(), actor.ID, id, req.Stars)
	if err != nil {
		h.fail(c, err)
		return
	}
	score, err := h.content.PostScore(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "score": score})
}
