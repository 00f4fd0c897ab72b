package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vibecheck/internal/pkg/presence/application/usecase"
)

// UpsertUserController handles the join / rename / vibe-change endpoint
// (one controller per endpoint)
type UpsertUserController struct {
	UC *usecase.UpsertUserUseCase
}

func NewUpsertUserController(uc *usecase.UpsertUserUseCase) *UpsertUserController {
	return &UpsertUserController{UC: uc}
}

// upsertUserRequest is the DTO for the HTTP request body. Vibe is nullable:
// null or absent means the user has not picked a quadrant.
type upsertUserRequest struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Vibe *string `json:"vibe"`
}

func (h *UpsertUserController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req upsertUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		vibe := ""
		if req.Vibe != nil {
			vibe = *req.Vibe
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		_, err := h.UC.Execute(ctx, usecase.UpsertUserInput{ID: req.ID, Name: req.Name, Vibe: vibe})
		if err != nil {
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
