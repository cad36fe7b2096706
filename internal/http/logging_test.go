package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/jadwalin/jadwal/internal/application"
)

func TestHandlerLoggerTagsRequestContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := ContextWithPrincipal(context.Background(), application.Principal{UserID: "student-1"})
	ctx = ContextWithResourceID(ctx, "evt-9")
	handlerLogger(ctx, base, "ScheduleHandler", "Move", "day_of_week", 3).Info("moved")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	want := map[string]any{
		"handler":      "ScheduleHandler",
		"operation":    "Move",
		"principal_id": "student-1",
		"resource_id":  "evt-9",
		"day_of_week":  float64(3),
	}
	for key, value := range want {
		if entry[key] != value {
			t.Fatalf("%s = %v, want %v (entry %v)", key, entry[key], value, entry)
		}
	}
}

func TestHandlerLoggerPrefersContextLogger(t *testing.T) {
	t.Parallel()

	var fallback, scoped bytes.Buffer
	ctx := ContextWithLogger(context.Background(), slog.New(slog.NewJSONHandler(&scoped, nil)).With("request_id", "req-1"))

	handlerLogger(ctx, slog.New(slog.NewJSONHandler(&fallback, nil)), "UserHandler", "").Info("listed")

	if fallback.Len() != 0 {
		t.Fatalf("fallback logger should be unused, got %s", fallback.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(scoped.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["request_id"] != "req-1" || entry["handler"] != "UserHandler" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["operation"]; ok {
		t.Fatalf("empty operation should be omitted: %v", entry)
	}
	if _, ok := entry["principal_id"]; ok {
		t.Fatalf("anonymous requests carry no principal: %v", entry)
	}
}
