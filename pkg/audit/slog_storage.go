package audit

import (
	"context"
	"log/slog"
)

type slogStorage struct {
	log *slog.Logger
}

// NewSlogStorage writes every event to log as one record. Successful events
// are logged at info level, failures and errors at warn.
func NewSlogStorage(log *slog.Logger) Storage {
	if log == nil {
		log = slog.Default()
	}
	return &slogStorage{log: log}
}

func (s *slogStorage) Store(ctx context.Context, event Event) error {
	level := slog.LevelInfo
	if event.Result != ResultSuccess {
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("audit_id", event.ID),
		slog.String("action", event.Action),
		slog.String("result", string(event.Result)),
	}
	optional := []struct{ key, value string }{
		{"organization_id", event.OrganizationID},
		{"actor_id", event.ActorID},
		{"resource", event.Resource},
		{"resource_id", event.ResourceID},
		{"error", event.Error},
		{"request_id", event.RequestID},
		{"client_ip", event.IP},
		{"user_agent", event.UserAgent},
	}
	for _, f := range optional {
		if f.value != "" {
			attrs = append(attrs, slog.String(f.key, f.value))
		}
	}
	if len(event.Metadata) > 0 {
		meta := make([]any, 0, len(event.Metadata))
		for k, v := range event.Metadata {
			meta = append(meta, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", meta...))
	}

	s.log.LogAttrs(ctx, level, "audit", attrs...)
	return nil
}
