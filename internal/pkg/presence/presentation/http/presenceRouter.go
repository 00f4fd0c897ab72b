package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	bport "vibecheck/internal/infrastructure/broadcast/port"
	"vibecheck/internal/infrastructure/realtime"
	"vibecheck/internal/pkg/presence/application/usecase"
	repoAdapter "vibecheck/internal/pkg/presence/persistence/repository/adapter"
	"vibecheck/internal/pkg/presence/presentation/controller"
)

// RegisterRoutes registers presence HTTP endpoints under the given router
// group. It constructs per-endpoint controllers and binds them directly to
// routes.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, pub bport.Publisher, hub *realtime.Hub) {
	repo := repoAdapter.NewPgPresenceRepository(pool)

	listCtl := controller.NewListUsersController(usecase.NewListActiveUsersUseCase(repo))
	upsertCtl := controller.NewUpsertUserController(usecase.NewUpsertUserUseCase(repo, pub))
	heartbeatCtl := controller.NewHeartbeatController(usecase.NewHeartbeatUseCase(repo))
	leaveCtl := controller.NewLeaveController(usecase.NewRemoveUserUseCase(repo, pub))
	messageCtl := controller.NewSendMessageController(usecase.NewSendDirectMessageUseCase(pub))
	socketCtl := controller.NewEventsSocketController(hub)

	// GET /api/users -> active snapshot, POST /api/users -> join/vibe/rename
	g.GET("/users", listCtl.Handle())
	g.POST("/users", upsertCtl.Handle())

	// POST /api/heartbeat -> refresh last_seen, no broadcast
	g.POST("/heartbeat", heartbeatCtl.Handle())

	// POST /api/leave -> delete row + user-removed broadcast
	g.POST("/leave", leaveCtl.Handle())

	// POST /api/message -> ephemeral direct ping, never persisted
	g.POST("/message", messageCtl.Handle())

	// GET /api/events -> websocket feed of broadcast events
	g.GET("/events", socketCtl.Handle())
}
