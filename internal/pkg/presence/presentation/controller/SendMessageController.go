package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vibecheck/internal/pkg/presence/application/usecase"
)

// SendMessageController handles ephemeral direct pings (one controller per
// endpoint). Nothing is stored: the event either reaches the recipient's
// live subscription or it is gone.
type SendMessageController struct {
	UC *usecase.SendDirectMessageUseCase
}

func NewSendMessageController(uc *usecase.SendDirectMessageUseCase) *SendMessageController {
	return &SendMessageController{UC: uc}
}

type sendMessageRequest struct {
	ToID     string `json:"toId"`
	FromName string `json:"fromName"`
	Text     string `json:"text"`
}

func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		err := h.UC.Execute(ctx, usecase.SendDirectMessageInput{
			ToID:     req.ToID,
			FromName: req.FromName,
			Text:     req.Text,
		})
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrBroadcast) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
