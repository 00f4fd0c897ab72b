package router

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	bport "vibecheck/internal/infrastructure/broadcast/port"
	"vibecheck/internal/infrastructure/realtime"
	httpHandler "vibecheck/internal/pkg/presence/presentation/http"
)

// RegisterRoutes mounts all API routes under /api
func RegisterRoutes(r *gin.Engine, pool *pgxpool.Pool, pub bport.Publisher, hub *realtime.Hub) {
	api := r.Group("/api")
	// Pass the DB pool, broadcast publisher and websocket hub down to the HTTP layer
	httpHandler.RegisterRoutes(api, pool, pub, hub)
}
