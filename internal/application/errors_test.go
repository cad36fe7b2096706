package application

import (
	"fmt"
	"testing"

	"github.com/jadwalin/jadwal/internal/scheduler"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"field": "invalid"}}
	if got := withFields.Error(); got != "validation failed" {
		t.Fatalf("expected generic message, got %q", got)
	}
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	if base.HasErrors() {
		t.Fatal("expected empty error to report no fields")
	}
	base.add("first", "value")
	base.merge(fieldError("second", "another"))
	base.merge(nil)

	if !base.HasErrors() || len(base.FieldErrors) != 2 || base.FieldErrors["second"] != "another" {
		t.Fatalf("unexpected fields %v", base.FieldErrors)
	}
}

func TestDetectorValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err   error
		field string
	}{
		{err: fmt.Errorf("wrapped: %w", scheduler.ErrInvalidInterval), field: "time"},
		{err: scheduler.ErrInvalidDay, field: "day_of_week"},
	}
	for _, tt := range tests {
		vErr := &ValidationError{}
		if !detectorValidation(tt.err, vErr) {
			t.Fatalf("expected %v to be recognised", tt.err)
		}
		if _, ok := vErr.FieldErrors[tt.field]; !ok {
			t.Fatalf("expected field %s, got %v", tt.field, vErr.FieldErrors)
		}
	}

	if detectorValidation(ErrNotFound, &ValidationError{}) {
		t.Fatal("unrelated errors must not be mapped")
	}
}
