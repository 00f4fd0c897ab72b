package usecase

import (
	"context"
	"fmt"

	bport "vibecheck/internal/infrastructure/broadcast/port"
	presence "vibecheck/internal/pkg/presence/domain"
)

// SendDirectMessageInput carries an ephemeral ping to a single online user.
type SendDirectMessageInput struct {
	ToID     string
	FromName string
	Text     string
}

// SendDirectMessageUseCase publishes a user-message event with no durable
// write. Every subscriber receives the event; only the client whose id
// matches ToID acts on it. Delivery is at-most-once, best-effort.
type SendDirectMessageUseCase struct {
	Pub bport.Publisher
}

func NewSendDirectMessageUseCase(pub bport.Publisher) *SendDirectMessageUseCase {
	return &SendDirectMessageUseCase{Pub: pub}
}

func (uc *SendDirectMessageUseCase) Execute(ctx context.Context, in SendDirectMessageInput) error {
	msg, err := presence.NewDirectMessage(in.ToID, in.FromName, in.Text)
	if err != nil {
		return err
	}

	payload, err := presence.NewUserMessageEvent(*msg).Encode()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBroadcast, err)
	}
	if err := uc.Pub.Publish(ctx, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrBroadcast, err)
	}
	return nil
}
