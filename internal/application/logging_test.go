package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/jadwalin/jadwal/internal/logging"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}
	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestServiceLoggerPrefersContextLogger(t *testing.T) {
	t.Parallel()

	var ctxBuf, baseBuf bytes.Buffer
	ctxLogger := slog.New(slog.NewJSONHandler(&ctxBuf, nil))
	base := slog.New(slog.NewJSONHandler(&baseBuf, nil))

	ctx := logging.ContextWithLogger(context.Background(), ctxLogger)
	serviceLogger(ctx, base, "ScheduleService", "CreateEvent", "user_id", "u1").Info("hello")

	if baseBuf.Len() != 0 {
		t.Fatalf("expected base logger to be bypassed, got %s", baseBuf.String())
	}
	out := ctxBuf.String()
	for _, want := range []string{`"service":"ScheduleService"`, `"operation":"CreateEvent"`, `"user_id":"u1"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := map[string]error{
		"":                    nil,
		"unauthorized":        ErrUnauthorized,
		"not_found":           fmt.Errorf("wrap: %w", ErrNotFound),
		"already_exists":      ErrAlreadyExists,
		"invalid_credentials": ErrInvalidCredentials,
		"session_expired":     ErrSessionExpired,
		"session_revoked":     ErrSessionRevoked,
		"validation":          fieldError("title", "required"),
		"unexpected":          errors.New("boom"),
	}
	for want, err := range tests {
		if got := ErrorKind(err); got != want {
			t.Errorf("ErrorKind(%v) = %q, want %q", err, got, want)
		}
	}
}
