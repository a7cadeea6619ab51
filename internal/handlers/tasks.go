package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/glowplan/selfcare-backend/internal/requestdata"
	"github.com/glowplan/selfcare-backend/internal/services"
	"github.com/glowplan/selfcare-backend/internal/types"
)

type TaskHandler struct {
	taskService services.TaskService
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func authedUserID(c *gin.Context) (uuid.UUID, error) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("no authenticated user")
	}
	return rd.UserID, nil
}

// RecordUpdates appends a batch of status-change events for the caller.
func (th *TaskHandler) RecordUpdates(c *gin.Context) {
	userID, err := authedUserID(c)
	if err != nil {
		RespondError(c, http.StatusForbidden, "forbidden", err)
		return
	}

	var body struct {
		Updates []services.UpdateInput `json:"updates" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	created, err := th.taskService.RecordUpdates(c.Request.Context(), userID, body.Updates)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_updates", err)
		return
	}
	RespondOK(c, gin.H{"updates": created})
}

// UpdateHistory lists the caller's full update-event stream.
func (th *TaskHandler) UpdateHistory(c *gin.Context) {
	userID, err := authedUserID(c)
	if err != nil {
		RespondError(c, http.StatusForbidden, "forbidden", err)
		return
	}

	updates, err := th.taskService.UpdateHistory(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "history_failed", err)
		return
	}
	RespondOK(c, gin.H{"updates": updates})
}

// SaveActivities upserts the caller's activity definitions.
func (th *TaskHandler) SaveActivities(c *gin.Context) {
	userID, err := authedUserID(c)
	if err != nil {
		RespondError(c, http.StatusForbidden, "forbidden", err)
		return
	}

	var body struct {
		Activities []*types.Activity `json:"activities" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	saved, err := th.taskService.SaveActivities(c.Request.Context(), userID, body.Activities)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_activities", err)
		return
	}
	RespondOK(c, gin.H{"activities": saved})
}

// DayView returns the reconciled task list for one calendar day.
func (th *TaskHandler) DayView(c *gin.Context) {
	userID, err := authedUserID(c)
	if err != nil {
		RespondError(c, http.StatusForbidden, "forbidden", err)
		return
	}

	date := c.Query("date")
	if date == "" {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("date query parameter required"))
		return
	}

	tasks, err := th.taskService.DayView(c.Request.Context(), userID, date, nil)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_date", err)
		return
	}
	RespondOK(c, gin.H{"tasks": tasks})
}
