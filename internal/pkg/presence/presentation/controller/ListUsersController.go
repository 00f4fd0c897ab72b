package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vibecheck/internal/pkg/presence/application/usecase"
)

// ListUsersController serves the active-user snapshot (one controller per
// endpoint)
type ListUsersController struct {
	UC *usecase.ListActiveUsersUseCase
}

func NewListUsersController(uc *usecase.ListActiveUsersUseCase) *ListUsersController {
	return &ListUsersController{UC: uc}
}

// Handle returns the full snapshot keyed by user id. Clients poll this every
// few seconds as the fallback behind the event stream.
func (h *ListUsersController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		users, err := h.UC.Execute(ctx)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		// Keyed object, not an array: ids stay outside the row payload.
		out := make(gin.H, len(users))
		for id, u := range users {
			out[id] = gin.H{
				"name":     u.Name,
				"vibe":     u.Vibe,
				"lastSeen": u.LastSeen,
			}
		}
		c.JSON(http.StatusOK, out)
	}
}
