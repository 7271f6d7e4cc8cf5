package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quailbyte/sociable/config"
	mw "github.com/quailbyte/sociable/middleware"
	"github.com/quailbyte/sociable/model"
	"github.com/quailbyte/sociable/social"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProfileHandler handles profile REST endpoints.
type ProfileHandler struct {
	db       *gorm.DB
	profiles *social.Profiles
	policy   *social.Policy
	social   config.SocialConfig
	logger   *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(
	db *gorm.DB,
	profiles *social.Profiles,
	policy *social.Policy,
	socialCfg config.SocialConfig,
	logger *zap.Logger,
) *ProfileHandler {
	return &ProfileHandler{db: db, profiles: profiles, policy: policy, social: socialCfg, logger: logger}
}

type profileView struct {
	UID     string `json:"uid"`
	Handle  string `json:"handle"`
	Bio     string `json:"bio"`
	Website string `json:"website"`
	Private bool   `json:"private"`
}

func renderProfile(p *model.Profile) profileView {
	return profileView{
		UID:     p.UID,
		Handle:  p.Handle,
		Bio:     p.Bio,
		Website: p.Website,
		Private: p.Private,
	}
}

func (h *ProfileHandler) currentProfile(c *gin.Context) (*model.Profile, bool) {
	profile, err := h.profiles.GetByUser(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no profile for user"})
		return nil, false
	}
	return profile, true
}

// Me handles GET /api/profile/me.
func (h *ProfileHandler) Me(c *gin.Context) {
	profile, ok := h.currentProfile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": renderProfile(profile)})
}

// Get handles GET /api/profile/:uid.
// Private profiles reveal only UID and handle unless the viewer follows them.
func (h *ProfileHandler) Get(c *gin.Context) {
	viewer, ok := h.currentProfile(c)
	if !ok {
		return
	}
	target, err := h.profiles.GetByUID(c.Request.Context(), c.Param("uid"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	visible, err := h.policy.CanView(c.Request.Context(), viewer.ID, target.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !visible {
		c.JSON(http.StatusOK, gin.H{"profile": gin.H{
			"uid":     target.UID,
			"handle":  target.Handle,
			"private": target.Private,
		}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": renderProfile(target)})
}

type updateProfileRequest struct {
	Bio     *string `json:"bio"`
	Website *string `json:"website"`
}

// Update handles PUT /api/profile/me.
func (h *ProfileHandler) Update(c *gin.Context) {
	profile, ok := h.currentProfile(c)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Bio != nil {
		if len(*req.Bio) > h.social.MaxBioLen {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bio too long"})
			return
		}
		updates["bio"] = *req.Bio
	}
	if req.Website != nil {
		updates["website"] = *req.Website
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(&model.Profile{}).Where("id = ?", profile.ID).
		Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated"})
}

// TogglePrivacy handles POST /api/profile/privacy.
// Flipping a private profile public auto-accepts its pending requests.
func (h *ProfileHandler) TogglePrivacy(c *gin.Context) {
	profile, ok := h.currentProfile(c)
	if !ok {
		return
	}
	private, err := h.profiles.TogglePrivacy(c.Request.Context(), profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"private": private})
}

// Delete handles DELETE /api/profile/me.
// Deleting the profile removes the user and everything they authored.
func (h *ProfileHandler) Delete(c *gin.Context) {
	profile, ok := h.currentProfile(c)
	if !ok {
		return
	}
	if err := h.profiles.DeleteProfile(c.Request.Context(), profile.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile deleted"})
}
