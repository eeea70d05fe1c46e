// Package requestid tags every HTTP request with a correlation ID.
//
// Middleware accepts a client supplied X-Request-ID of up to 128 characters
// drawn from letters, digits, '-' and '_'. Anything else is replaced with a
// fresh UUID. The ID is echoed in the response header and stored in the
// request context.
//
// The ID reaches logs and audit events through extractors:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	auditLog := audit.NewLogger(storage, audit.WithRequestIDExtractor(requestid.AuditExtractor()))
//
// Mount Middleware ahead of the CSRF guard so rejections are correlated
// with the request that caused them.
package requestid
