package port

import "context"

// Task represents a background job message with a type and opaque payload
// bytes. Type should be a stable string identifier. Payload encoding is up to
// callers; keep this port free from serialization concerns.
type Task struct {
	Type    string
	Payload []byte
}

// Handler processes a Task. Return a non-nil error to signal retry per
// adapter policy. Handlers must be idempotent.
type Handler func(ctx context.Context, task Task) error

// Server runs background workers that handle tasks.
// Implementations should block in Run until Stop is called or the context is
// canceled.
type Server interface {
	Register(taskType string, h Handler)
	Run(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Scheduler enqueues tasks on a recurring cron-style schedule. Cronspec
// syntax is adapter-defined; the asynq adapter accepts standard cron entries
// and "@every <duration>" shorthands.
type Scheduler interface {
	Register(cronspec string, t Task) (entryID string, err error)
	Run(ctx context.Context) error
}
