package tracing

import (
	"context"

	"github.com/rs/zerolog"
)

// LoggerFromContext returns a logger annotated with whatever tracing fields
// the context carries.
func LoggerFromContext(ctx context.Context, baseLogger zerolog.Logger) zerolog.Logger {
	logger := baseLogger

	if traceID := TraceIDFromContext(ctx); traceID != "" {
		logger = logger.With().Str("trace_id", traceID).Logger()
	}
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		logger = logger.With().Str("request_id", requestID).Logger()
	}
	if accountID := AccountIDFromContext(ctx); accountID != "" {
		logger = logger.With().Str("account_id", accountID).Logger()
	}

	return logger
}
