package jobs

import (
	"context"
	"errors"
	"testing"
)

func TestTriggerRejectsUnknownJobType(t *testing.T) {
	s := &Service{}
	if _, err := s.Trigger(context.Background(), "mystery_scan", "ws1"); !errors.Is(err, ErrUnknownJobType) {
		t.Fatalf("expected ErrUnknownJobType, got %v", err)
	}
}
