package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glowplan/selfcare-backend/internal/services"
	"github.com/glowplan/selfcare-backend/internal/types"
)

type NotificationHandler struct {
	userService services.UserService
}

func NewNotificationHandler(userService services.UserService) *NotificationHandler {
	return &NotificationHandler{userService: userService}
}

func (nh *NotificationHandler) GetPrefs(c *gin.Context) {
	userID, err := authedUserID(c)
	if err != nil {
		RespondError(c, http.StatusForbidden, "forbidden", err)
		return
	}

	prefs, err := nh.userService.GetPrefs(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	RespondOK(c, gin.H{"prefs": prefs})
}

func (nh *NotificationHandler) SavePrefs(c *gin.Context) {
	userID, err := authedUserID(c)
	if err != nil {
		RespondError(c, http.StatusForbidden, "forbidden", err)
		return
	}

	var prefs types.NotificationPrefs
	if err := c.ShouldBindJSON(&prefs); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := nh.userService.SavePrefs(c.Request.Context(), userID, prefs); err != nil {
		RespondError(c, http.StatusInternalServerError, "save_failed", err)
		return
	}
	RespondOK(c, gin.H{"prefs": prefs})
}

func (nh *NotificationHandler) RegisterToken(c *gin.Context) {
	userID, err := authedUserID(c)
	if err != nil {
		RespondError(c, http.StatusForbidden, "forbidden", err)
		return
	}

	var body struct {
		Token    string `json:"token" binding:"required"`
		Platform string `json:"platform"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := nh.userService.RegisterToken(c.Request.Context(), userID, body.Token, body.Platform, c.GetHeader("User-Agent")); err != nil {
		RespondError(c, http.StatusInternalServerError, "register_failed", err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

func (nh *NotificationHandler) RemoveToken(c *gin.Context) {
	userID, err := authedUserID(c)
	if err != nil {
		RespondError(c, http.StatusForbidden, "forbidden", err)
		return
	}

	var body struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := nh.userService.RemoveToken(c.Request.Context(), userID, body.Token); err != nil {
		RespondError(c, http.StatusInternalServerError, "remove_failed", err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}
