// Package audit records security relevant actions: role mutations, role
// assignment changes and rejected requests.
//
// A Logger builds Events, fills request metadata from the context through
// configurable extractors and hands them to a Storage. Storages shipped with
// authkit:
//
//   - NewSlogStorage writes every event as a structured log record.
//   - NewMemoryStorage keeps events in memory, mostly for tests.
//   - pgstore.AuditStorage persists events in PostgreSQL.
//
// Storages that can write several events at once (BatchStorage) may be
// wrapped with NewAsyncStorage to move writes off the request path.
//
//	auditLog := audit.NewLogger(audit.NewSlogStorage(log),
//		audit.WithIPExtractor(func(ctx context.Context) (string, bool) {
//			ip := clientip.GetIPFromContext(ctx)
//			return ip, ip != ""
//		}),
//	)
//
//	err := auditLog.Log(ctx, audit.ActionRoleCreated,
//		audit.WithResource("role", role.ID.String()),
//	)
//
// A nil *Logger is valid and discards every event, so components can take an
// optional audit logger without nil checks.
package audit
