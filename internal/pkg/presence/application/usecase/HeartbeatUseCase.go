package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "vibecheck/internal/pkg/presence/persistence/repository/port"
)

// HeartbeatUseCase refreshes last_seen without touching name or vibe.
// Heartbeats are silent: no broadcast event, so 30-second ticks from every
// client do not multiply into fan-out traffic.
type HeartbeatUseCase struct {
	Repo repository.PresenceRepository

	Now func() time.Time
}

func NewHeartbeatUseCase(repo repository.PresenceRepository) *HeartbeatUseCase {
	return &HeartbeatUseCase{Repo: repo, Now: time.Now}
}

func (uc *HeartbeatUseCase) Execute(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id is required")
	}
	if err := uc.Repo.Touch(ctx, id, uc.Now().UnixMilli()); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
