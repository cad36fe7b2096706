package http

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// handlerLogger prefers the request-scoped logger (which already carries
// request_id) and tags it with the handler, the operation, the acting user
// and the path id when the router resolved one.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	pairs := make([]any, 0, 8+len(attrs))
	pairs = append(pairs, "handler", handlerName)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if ctx != nil {
		if principal, ok := PrincipalFromContext(ctx); ok && principal.UserID != "" {
			pairs = append(pairs, "principal_id", principal.UserID)
		}
		if id, ok := ResourceIDFromContext(ctx); ok && id != "" {
			pairs = append(pairs, "resource_id", id)
		}
	}
	pairs = append(pairs, attrs...)
	return logger.With(pairs...)
}
