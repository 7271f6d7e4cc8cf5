package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quailbyte/sociable/model"
	"github.com/quailbyte/sociable/social"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by the IP whitelist middleware.
type AdminHandler struct {
	db       *gorm.DB
	profiles *social.Profiles
	logger   *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(db *gorm.DB, profiles *social.Profiles, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, profiles: profiles, logger: logger}
}

// BanUser handles POST /api/admin/ban/:id.
// Banned users keep their data but can no longer log in.
func (h *AdminHandler) BanUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res := h.db.Model(&model.User{}).Where("id = ?", userID).Update("status", 0)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	h.logger.Info("user banned", zap.Int64("user_id", userID))
	c.JSON(http.StatusOK, gin.H{"message": "user banned"})
}

// UnbanUser handles POST /api/admin/unban/:id.
func (h *AdminHandler) UnbanUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res := h.db.Model(&model.User{}).Where("id = ?", userID).Update("status", 1)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user unbanned"})
}

// RemoveProfile handles DELETE /api/admin/profiles/:uid.
// Removes a profile with its user and authored content.
func (h *AdminHandler) RemoveProfile(c *gin.Context) {
	profile, err := h.profiles.GetByUID(c.Request.Context(), c.Param("uid"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if err := h.profiles.DeleteProfile(c.Request.Context(), profile.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	h.logger.Info("profile removed by admin",
		zap.String("uid", profile.UID), zap.String("handle", profile.Handle))
	c.JSON(http.StatusOK, gin.H{"message": "profile removed"})
}

// AuditTrail handles GET /api/admin/audit?limit=N.
func (h *AdminHandler) AuditTrail(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	var logs []model.AuditLog
	if err := h.db.Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": logs, "count": len(logs)})
}
