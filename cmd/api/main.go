package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"vibecheck/cmd/api/router"
	broadcastAdapter "vibecheck/internal/infrastructure/broadcast/adapter"
	"vibecheck/internal/infrastructure/database"
	queueAdapter "vibecheck/internal/infrastructure/queue/adapter"
	"vibecheck/internal/infrastructure/realtime"
	"vibecheck/internal/pkg/presence/application/task"
	presence "vibecheck/internal/pkg/presence/domain"
	repoAdapter "vibecheck/internal/pkg/presence/persistence/repository/adapter"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// Connect to the database on startup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	pool, err := database.NewPoolFromEnv(ctx)
	if err != nil {
		cancel()
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	repo := repoAdapter.NewPgPresenceRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		cancel()
		log.Fatalf("failed to create presence schema: %v", err)
	}
	cancel()

	// Broadcast channel: one redis pub/sub topic shared by every client
	broadcast, err := broadcastAdapter.NewRedisBroadcast()
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer broadcast.Close()

	hub := realtime.NewHub()
	defer hub.Close()

	// Relay published events to every attached websocket. Frames are
	// validated into the closed event set before forwarding; anything else
	// on the channel is dropped.
	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()

	events, err := broadcast.Subscribe(relayCtx)
	if err != nil {
		log.Fatalf("failed to subscribe to broadcast channel: %v", err)
	}
	go func() {
		for payload := range events {
			if _, err := presence.DecodeEvent(payload); err != nil {
				log.Printf("dropping malformed broadcast frame: %v", err)
				continue
			}
			hub.Broadcast(payload)
		}
	}()

	// Periodic stale-row reaper via asynq
	queueSrv, err := queueAdapter.NewAsynqServer()
	if err != nil {
		log.Fatalf("failed to create queue server: %v", err)
	}
	scheduler, err := queueAdapter.NewAsynqScheduler()
	if err != nil {
		log.Fatalf("failed to create queue scheduler: %v", err)
	}
	if err := task.RegisterReapStaleUsersTask(queueSrv, scheduler, pool); err != nil {
		log.Fatalf("failed to schedule reaper: %v", err)
	}
	go func() {
		if err := queueSrv.Run(relayCtx); err != nil {
			log.Printf("queue server stopped: %v", err)
		}
	}()
	go func() {
		if err := scheduler.Run(relayCtx); err != nil {
			log.Printf("queue scheduler stopped: %v", err)
		}
	}()

	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "OK",
		})
	})

	router.RegisterRoutes(r, pool, broadcast, hub)

	// Start HTTP server (blocks until shutdown)
	if err := r.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
