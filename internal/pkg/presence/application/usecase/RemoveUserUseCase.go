package usecase

import (
	"context"
	"fmt"
	"strings"

	bport "vibecheck/internal/infrastructure/broadcast/port"
	presence "vibecheck/internal/pkg/presence/domain"
	repository "vibecheck/internal/pkg/presence/persistence/repository/port"
)

// RemoveUserUseCase deletes the row and publishes user-removed. Removal is
// idempotent: deleting an id that was never present still succeeds and still
// publishes, so caches converge regardless of prior state.
type RemoveUserUseCase struct {
	Repo repository.PresenceRepository
	Pub  bport.Publisher
}

func NewRemoveUserUseCase(repo repository.PresenceRepository, pub bport.Publisher) *RemoveUserUseCase {
	return &RemoveUserUseCase{Repo: repo, Pub: pub}
}

func (uc *RemoveUserUseCase) Execute(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id is required")
	}

	if err := uc.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	payload, err := presence.NewUserRemovedEvent(id).Encode()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBroadcast, err)
	}
	if err := uc.Pub.Publish(ctx, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrBroadcast, err)
	}
	return nil
}
