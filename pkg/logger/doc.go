// Package logger builds the *slog.Logger instances used across authkit and
// provides attribute helpers so every package logs the same keys.
//
// New assembles a slog handler from functional options (format, level, output,
// static attributes) and wraps it in a decorator that pulls request-scoped
// values out of context.Context on each record:
//
//	log := logger.New(
//	    logger.WithFormat(logger.FormatText),
//	    logger.WithLevel(slog.LevelDebug),
//	    logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	log.WarnContext(ctx, "csrf token rejected",
//	    logger.Component("csrf"),
//	    logger.ClientIP(ip),
//	    logger.Error(err),
//	)
//
// Helpers such as Error and PrincipalID return an empty slog.Attr for nil
// input, which slog drops, so call sites do not need nil checks.
//
// Library packages default to Discard when the caller does not supply a
// logger.
package logger
