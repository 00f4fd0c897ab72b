package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vibecheck/internal/pkg/presence/application/usecase"
)

// HeartbeatController handles the silent keep-alive endpoint (one controller
// per endpoint)
type HeartbeatController struct {
	UC *usecase.HeartbeatUseCase
}

func NewHeartbeatController(uc *usecase.HeartbeatUseCase) *HeartbeatController {
	return &HeartbeatController{UC: uc}
}

type heartbeatRequest struct {
	ID string `json:"id"`
}

func (h *HeartbeatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req heartbeatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := h.UC.Execute(ctx, req.ID); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
