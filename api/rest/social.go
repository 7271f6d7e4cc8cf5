package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quailbyte/sociable/audit"
	mw "github.com/quailbyte/sociable/middleware"
	"github.com/quailbyte/sociable/model"
	"github.com/quailbyte/sociable/social"
	"go.uber.org/zap"
)

// SocialHandler handles relation REST endpoints. Targets are addressed by
// their profile UID, never by internal IDs.
type SocialHandler struct {
	ledger   *social.Ledger
	resolver *social.Resolver
	profiles *social.Profiles
	audit    *audit.Service
	logger   *zap.Logger
}

// NewSocialHandler creates a new SocialHandler.
func NewSocialHandler(
	ledger *social.Ledger,
	resolver *social.Resolver,
	profiles *social.Profiles,
	auditSvc *audit.Service,
	logger *zap.Logger,
) *SocialHandler {
	return &SocialHandler{
		ledger:   ledger,
		resolver: resolver,
		profiles: profiles,
		audit:    auditSvc,
		logger:   logger,
	}
}

// currentProfile resolves the authenticated user's profile.
func (h *SocialHandler) currentProfile(c *gin.Context) (*model.Profile, bool) {
	userID := mw.GetUserID(c)
	profile, err := h.profiles.GetByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no profile for user"})
		return nil, false
	}
	return profile, true
}

// targetProfile resolves the :uid route param.
func (h *SocialHandler) targetProfile(c *gin.Context) (*model.Profile, bool) {
	profile, err := h.profiles.GetByUID(c.Request.Context(), c.Param("uid"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return nil, false
	}
	return profile, true
}

// relationStatus maps ledger errors to HTTP status codes.
func relationStatus(err error) int {
	switch {
	case errors.Is(err, social.ErrSelfRelation):
		return http.StatusBadRequest
	case errors.Is(err, social.ErrAlreadyRelated):
		return http.StatusConflict
	case errors.Is(err, social.ErrNoSuchRelation):
		return http.StatusNotFound
	case errors.Is(err, social.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, social.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, social.ErrPublicProfile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type ledgerOp func(ctx context.Context, actorID, accountID int64) (string, error)

// mutate runs one relation transition and writes the outcome to the audit log.
func (h *SocialHandler) mutate(c *gin.Context, action string, op ledgerOp) {
	start := time.Now()
	actor, ok := h.currentProfile(c)
	if !ok {
		return
	}
	target, ok := h.targetProfile(c)
	if !ok {
		return
	}

	msg, err := op(c.Request.Context(), actor.ID, target.ID)

	userID := mw.GetUserID(c)
	entry := audit.Entry{
		TraceID:    mw.GetTraceID(c),
		UserID:     &userID,
		ProfileID:  &actor.ID,
		Action:     action,
		Request:    gin.H{"target_uid": target.UID},
		IP:         c.ClientIP(),
		DurationMs: int(time.Since(start).Milliseconds()),
	}
	if err != nil {
		entry.Error = err.Error()
		h.audit.Log(entry)
		status := relationStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("relation transition failed",
				zap.String("action", action), zap.Error(err))
			c.JSON(status, gin.H{"error": "internal error"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	entry.Response = gin.H{"message": msg}
	h.audit.Log(entry)

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// Follow handles POST /api/social/follow/:uid.
func (h *SocialHandler) Follow(c *gin.Context) {
	h.mutate(c, "relation.follow", h.ledger.Follow)
}

// Unfollow handles POST /api/social/unfollow/:uid.
func (h *SocialHandler) Unfollow(c *gin.Context) {
	h.mutate(c, "relation.unfollow", h.ledger.Unfollow)
}

// UndoRequest handles POST /api/social/undo/:uid.
func (h *SocialHandler) UndoRequest(c *gin.Context) {
	h.mutate(c, "relation.undo_request", h.ledger.UndoRequest)
}

// Accept handles POST /api/social/accept/:uid.
// The :uid names the requester whose pending request is accepted.
func (h *SocialHandler) Accept(c *gin.Context) {
	h.mutate(c, "relation.accept", func(ctx context.Context, actorID, accountID int64) (string, error) {
		return h.ledger.Accept(ctx, actorID, accountID)
	})
}

// Decline handles POST /api/social/decline/:uid.
func (h *SocialHandler) Decline(c *gin.Context) {
	h.mutate(c, "relation.decline", func(ctx context.Context, actorID, accountID int64) (string, error) {
		return h.ledger.Decline(ctx, actorID, accountID)
	})
}

// Block handles POST /api/social/block/:uid.
func (h *SocialHandler) Block(c *gin.Context) {
	h.mutate(c, "relation.block", h.ledger.Block)
}

// Unblock handles POST /api/social/unblock/:uid.
func (h *SocialHandler) Unblock(c *gin.Context) {
	h.mutate(c, "relation.unblock", h.ledger.Unblock)
}

// list renders a profile ID list as UID/handle summaries.
func (h *SocialHandler) list(c *gin.Context, key string, ids []int64) {
	type profileInfo struct {
		UID    string `json:"uid"`
		Handle string `json:"handle"`
	}
	result := make([]profileInfo, 0, len(ids))
	for _, id := range ids {
		p, err := h.profiles.Get(c.Request.Context(), id)
		if err != nil {
			continue
		}
		result = append(result, profileInfo{UID: p.UID, Handle: p.Handle})
	}
	c.JSON(http.StatusOK, gin.H{key: result, "count": len(result)})
}

// Followers handles GET /api/social/followers.
func (h *SocialHandler) Followers(c *gin.Context) {
	actor, ok := h.currentProfile(c)
	if !ok {
		return
	}
	ids, err := h.resolver.Followers(c.Request.Context(), actor.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	h.list(c, "followers", ids)
}

// Followings handles GET /api/social/followings.
func (h *SocialHandler) Followings(c *gin.Context) {
	actor, ok := h.currentProfile(c)
	if !ok {
		return
	}
	ids, err := h.resolver.Followings(c.Request.Context(), actor.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	h.list(c, "followings", ids)
}

// PendingRequests handles GET /api/social/requests.
func (h *SocialHandler) PendingRequests(c *gin.Context) {
	actor, ok := h.currentProfile(c)
	if !ok {
		return
	}
	ids, err := h.resolver.PendingRequests(c.Request.Context(), actor.ID)
	if err != nil {
		status := relationStatus(err)
		if status == http.StatusInternalServerError {
			c.JSON(status, gin.H{"error": "internal error"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	h.list(c, "requests", ids)
}

// BlockedList handles GET /api/social/blocked.
func (h *SocialHandler) BlockedList(c *gin.Context) {
	actor, ok := h.currentProfile(c)
	if !ok {
		return
	}
	ids, err := h.resolver.BlockedList(c.Request.Context(), actor.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	h.list(c, "blocked", ids)
}
