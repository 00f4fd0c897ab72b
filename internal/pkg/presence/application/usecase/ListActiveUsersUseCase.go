package usecase

import (
	"context"
	"fmt"
	"time"

	presence "vibecheck/internal/pkg/presence/domain"
	repository "vibecheck/internal/pkg/presence/persistence/repository/port"
)

// ListActiveUsersUseCase returns the snapshot of every row inside the
// staleness window. Aged-out rows are filtered here at read time; nothing
// ever deletes them on this path.
type ListActiveUsersUseCase struct {
	Repo repository.PresenceRepository

	Now func() time.Time
}

func NewListActiveUsersUseCase(repo repository.PresenceRepository) *ListActiveUsersUseCase {
	return &ListActiveUsersUseCase{Repo: repo, Now: time.Now}
}

func (uc *ListActiveUsersUseCase) Execute(ctx context.Context) (map[string]presence.UserPresence, error) {
	cutoff := uc.Now().Add(-presence.StaleThreshold).UnixMilli()
	users, err := uc.Repo.ListActive(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return users, nil
}
