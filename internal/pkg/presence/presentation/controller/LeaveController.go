package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vibecheck/internal/pkg/presence/application/usecase"
)

// LeaveController handles explicit removal from the board (one controller per
// endpoint). The id does not have to be the caller's own: the board allows
// forcibly logging out another user.
type LeaveController struct {
	UC *usecase.RemoveUserUseCase
}

func NewLeaveController(uc *usecase.RemoveUserUseCase) *LeaveController {
	return &LeaveController{UC: uc}
}

type leaveRequest struct {
	ID string `json:"id"`
}

func (h *LeaveController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req leaveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := h.UC.Execute(ctx, req.ID); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) || errors.Is(err, usecase.ErrBroadcast) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
