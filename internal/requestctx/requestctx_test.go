package requestctx

import (
	"context"
	"testing"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()

	if got := GetRequestID(ctx); got != "" {
		t.Fatalf("expected empty id outside a request, got %q", got)
	}

	ctx = WithRequestID(ctx, "req-42")
	if got := GetRequestID(ctx); got != "req-42" {
		t.Fatalf("got %q, want req-42", got)
	}

	if same := WithRequestID(ctx, ""); same != ctx {
		t.Fatal("empty id must not overwrite the stored one")
	}
}
