package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ContextExtractor pulls one event field out of a request context. It
// returns (value, found).
type ContextExtractor func(context.Context) (string, bool)

// Logger creates audit events and writes them to a Storage.
type Logger struct {
	storage Storage
	now     func() time.Time
	filter  *MetadataFilter
	hasher  Hasher

	organizationIDExtractor ContextExtractor
	actorIDExtractor        ContextExtractor
	requestIDExtractor      ContextExtractor
	ipExtractor             ContextExtractor
	userAgentExtractor      ContextExtractor
}

// Option configures Logger behavior during initialization.
type Option func(*Logger)

func WithOrganizationIDExtractor(fn ContextExtractor) Option {
	return func(l *Logger) {
		l.organizationIDExtractor = fn
	}
}

func WithActorIDExtractor(fn ContextExtractor) Option {
	return func(l *Logger) {
		l.actorIDExtractor = fn
	}
}

func WithRequestIDExtractor(fn ContextExtractor) Option {
	return func(l *Logger) {
		l.requestIDExtractor = fn
	}
}

func WithIPExtractor(fn ContextExtractor) Option {
	return func(l *Logger) {
		l.ipExtractor = fn
	}
}

func WithUserAgentExtractor(fn ContextExtractor) Option {
	return func(l *Logger) {
		l.userAgentExtractor = fn
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithMetadataFilter filters every event's metadata before it is stored.
func WithMetadataFilter(f *MetadataFilter) Option {
	return func(l *Logger) {
		l.filter = f
	}
}

// WithHasher stores a digest of each event in Event.Hash.
func WithHasher(h Hasher) Option {
	return func(l *Logger) {
		l.hasher = h
	}
}

// NewLogger creates a new audit logger. It panics on a nil storage.
func NewLogger(storage Storage, opts ...Option) *Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	l := &Logger{
		storage: storage,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Log records a successful action.
func (l *Logger) Log(ctx context.Context, action string, opts ...EventOption) error {
	if l == nil {
		return nil
	}

	return l.store(ctx, l.newEvent(ctx, action, ResultSuccess), opts)
}

// LogFailure records an action that was refused, such as a rejected request.
func (l *Logger) LogFailure(ctx context.Context, action string, reason error, opts ...EventOption) error {
	if l == nil {
		return nil
	}

	event := l.newEvent(ctx, action, ResultFailure)
	if reason != nil {
		event.Error = reason.Error()
	}
	return l.store(ctx, event, opts)
}

func (l *Logger) store(ctx context.Context, event Event, opts []EventOption) error {
	for _, opt := range opts {
		opt(&event)
	}

	if err := event.Validate(); err != nil {
		return err
	}

	if l.filter != nil {
		event.Metadata = l.filter.Filter(event.Metadata)
	}
	if l.hasher != nil {
		event.Hash = l.hasher.Hash(event)
	}

	return l.storage.Store(ctx, event)
}

func (l *Logger) newEvent(ctx context.Context, action string, result Result) Event {
	event := Event{
		ID:        uuid.New().String(),
		Action:    action,
		Result:    result,
		CreatedAt: l.now().UTC(),
	}

	extract := func(fn ContextExtractor, dst *string) {
		if fn == nil {
			return
		}
		if v, ok := fn(ctx); ok {
			*dst = v
		}
	}

	extract(l.organizationIDExtractor, &event.OrganizationID)
	extract(l.actorIDExtractor, &event.ActorID)
	extract(l.requestIDExtractor, &event.RequestID)
	extract(l.ipExtractor, &event.IP)
	extract(l.userAgentExtractor, &event.UserAgent)

	return event
}
