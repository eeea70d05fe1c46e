package requestid

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/authkit/pkg/audit"
	"github.com/dmitrymomot/authkit/pkg/logger"
)

// LoggerExtractor adds a request_id attribute to log records.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := FromContext(ctx); id != "" {
			return slog.String("request_id", id), true
		}
		return slog.Attr{}, false
	}
}

// AuditExtractor fills Event.RequestID.
//
//	audit.NewLogger(storage, audit.WithRequestIDExtractor(requestid.AuditExtractor()))
func AuditExtractor() audit.ContextExtractor {
	return func(ctx context.Context) (string, bool) {
		id := FromContext(ctx)
		return id, id != ""
	}
}
