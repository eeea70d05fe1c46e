package audit

import "context"

// Storage persists audit events.
type Storage interface {
	Store(ctx context.Context, event Event) error
}

// BatchStorage can persist several events in one round trip. Implementations
// must store all events or none.
type BatchStorage interface {
	Storage
	StoreBatch(ctx context.Context, events []Event) error
}
