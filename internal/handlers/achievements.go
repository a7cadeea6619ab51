package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glowplan/selfcare-backend/internal/services"
)

type AchievementHandler struct {
	achievementService services.AchievementService
}

func NewAchievementHandler(achievementService services.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievementService: achievementService}
}

// Recompute forces a full recount for the caller and returns the result.
func (ah *AchievementHandler) Recompute(c *gin.Context) {
	userID, err := authedUserID(c)
	if err != nil {
		RespondError(c, http.StatusForbidden, "forbidden", err)
		return
	}

	progress, err := ah.achievementService.Recompute(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "recompute_failed", err)
		return
	}
	RespondOK(c, gin.H{"progress": progress})
}

// MarkSeen records the highest level the user has been shown.
func (ah *AchievementHandler) MarkSeen(c *gin.Context) {
	userID, err := authedUserID(c)
	if err != nil {
		RespondError(c, http.StatusForbidden, "forbidden", err)
		return
	}

	var body struct {
		Level int `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := ah.achievementService.MarkLevelSeen(c.Request.Context(), userID, body.Level); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_level", err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}
