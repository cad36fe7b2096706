package testfixtures

import (
	"testing"

	"github.com/google/uuid"
)

func TestIDGeneratorProducesSequentialIDs(t *testing.T) {
	gen := NewIDGenerator("evt")

	if first, second := gen.Next(), gen.Next(); first != "evt-1" || second != "evt-2" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}

	gen.Reset("subj")
	if next := gen.Next(); next != "subj-1" {
		t.Fatalf("expected subj-1 after reset, got %q", next)
	}
}

func TestIDGeneratorNextUUIDIsStable(t *testing.T) {
	a := NewIDGenerator("user").NextUUID()
	b := NewIDGenerator("user").NextUUID()
	if a != b {
		t.Fatalf("expected identical sequences to yield identical uuids: %s vs %s", a, b)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("NextUUID produced %q: %v", a, err)
	}
}
