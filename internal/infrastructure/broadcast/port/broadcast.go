package port

import "context"

// Publisher fans a payload out to every subscriber of the shared presence
// topic. Implementations must be concurrency-safe and context-aware.
//
// Note: payloads are opaque bytes to keep the port free of serialization
// concerns; callers encode events before publishing.
type Publisher interface {
	// Publish delivers payload to all current subscribers. Delivery is
	// best-effort: there is no acknowledgement and no replay for
	// subscribers that connect later.
	Publish(ctx context.Context, payload []byte) error

	// Close releases any resources held by the publisher.
	Close() error
}

// Subscriber receives every payload published on the shared presence topic
// from the moment of subscription. A dropped payload is never redelivered;
// consumers are expected to reconcile via snapshot polling.
type Subscriber interface {
	// Subscribe returns a channel of raw payloads. The channel is closed
	// when ctx is canceled or the subscriber is closed.
	Subscribe(ctx context.Context) (<-chan []byte, error)

	// Close terminates the subscription and releases resources.
	Close() error
}
