package task

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	qport "vibecheck/internal/infrastructure/queue/port"
	presence "vibecheck/internal/pkg/presence/domain"
	repoAdapter "vibecheck/internal/pkg/presence/persistence/repository/adapter"
	repository "vibecheck/internal/pkg/presence/persistence/repository/port"
)

// ReapStaleUsersTaskType is the queue task name for the periodic stale-row
// sweep.
const ReapStaleUsersTaskType = "presence:reap_stale"

// ReapCronspec runs the sweep once per staleness window. Read-time filtering
// already hides stale rows from listings; this only stops abandoned sessions
// from accumulating in the table forever.
const ReapCronspec = "@every 10m"

// NewReapStaleUsersHandler returns the handler deleting every row at or past
// the staleness cutoff. Reaping publishes no events: passive expiry stays
// invisible to caches, which evict aged-out users through snapshot
// replacement instead.
func NewReapStaleUsersHandler(repo repository.PresenceRepository) qport.Handler {
	return func(ctx context.Context, _ qport.Task) error {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		cutoff := time.Now().Add(-presence.StaleThreshold).UnixMilli()
		n, err := repo.DeleteStale(ctx, cutoff)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Printf("reaped %d stale presence rows", n)
		}
		return nil
	}
}

// RegisterReapStaleUsersTask binds the reap handler to the provided server
// and schedules a recurring entry.
func RegisterReapStaleUsersTask(srv qport.Server, sched qport.Scheduler, pool *pgxpool.Pool) error {
	srv.Register(ReapStaleUsersTaskType, NewReapStaleUsersHandler(repoAdapter.NewPgPresenceRepository(pool)))
	_, err := sched.Register(ReapCronspec, qport.Task{Type: ReapStaleUsersTaskType})
	return err
}
