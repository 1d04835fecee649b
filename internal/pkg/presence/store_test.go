package presence

import (
	"context"
	"testing"
	"time"
)

func TestTrackerSetAndGet(t *testing.T) {
	tr := NewTracker(nil, 0)
	ctx := context.Background()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	status := tr.Set(ctx, "user-1", true, at)
	if !status.IsOnline {
		t.Fatalf("expected online status")
	}
	if status.LastSeenAt != "2025-06-01T12:00:00Z" {
		t.Fatalf("unexpected lastSeenAt: %s", status.LastSeenAt)
	}

	got, ok := tr.Get(ctx, "user-1")
	if !ok || !got.IsOnline {
		t.Fatalf("expected stored online status, got %+v ok=%v", got, ok)
	}
}

func TestTrackerOffline(t *testing.T) {
	tr := NewTracker(nil, 0)
	ctx := context.Background()

	tr.Set(ctx, "user-1", true, time.Now())
	status := tr.Set(ctx, "user-1", false, time.Now())
	if status.IsOnline {
		t.Fatalf("expected offline status")
	}
	if _, ok := tr.Get(ctx, "user-1"); ok {
		t.Fatalf("expected entry removed after going offline")
	}
}

func TestTrackerGetMany(t *testing.T) {
	tr := NewTracker(nil, 0)
	ctx := context.Background()

	tr.Set(ctx, "a", true, time.Now())
	tr.Set(ctx, "c", true, time.Now())

	out := tr.GetMany(ctx, []string{"a", "b", "c"})
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	if _, ok := out["b"]; ok {
		t.Fatalf("unknown user should be omitted")
	}
}
