package usecase

import (
	"context"
	"fmt"
	"time"

	bport "vibecheck/internal/infrastructure/broadcast/port"
	presence "vibecheck/internal/pkg/presence/domain"
	repository "vibecheck/internal/pkg/presence/persistence/repository/port"
)

// UpsertUserInput carries the single mutation path for join, rename and
// vibe change. Vibe is the raw wire value; empty means unset.
type UpsertUserInput struct {
	ID   string
	Name string
	Vibe string
}

// UpsertUserUseCase writes the full presence row and publishes the
// user-updated event that fans the change out to every connected client.
type UpsertUserUseCase struct {
	Repo repository.PresenceRepository
	Pub  bport.Publisher

	// Now is overridable for tests.
	Now func() time.Time
}

func NewUpsertUserUseCase(repo repository.PresenceRepository, pub bport.Publisher) *UpsertUserUseCase {
	return &UpsertUserUseCase{Repo: repo, Pub: pub, Now: time.Now}
}

// Execute validates, upserts with last_seen = now, then publishes the full
// new row. Publish happens after the durable write so subscribers never see
// an event for a row that was not stored.
func (uc *UpsertUserUseCase) Execute(ctx context.Context, in UpsertUserInput) (*presence.UserPresence, error) {
	vibe, err := presence.ParseVibe(in.Vibe)
	if err != nil {
		return nil, err
	}

	user, err := presence.NewUserPresence(in.ID, in.Name, vibe, uc.Now().UnixMilli())
	if err != nil {
		return nil, err
	}

	if err := uc.Repo.Upsert(ctx, *user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	payload, err := presence.NewUserUpdatedEvent(*user).Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBroadcast, err)
	}
	if err := uc.Pub.Publish(ctx, payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBroadcast, err)
	}

	return user, nil
}
