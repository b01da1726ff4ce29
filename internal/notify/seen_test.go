package notify

import (
	"context"
	"fmt"
	"testing"
)

func TestMemorySeenStoreMarksOnce(t *testing.T) {
	store := NewMemorySeenStore(10)
	ctx := context.Background()

	seen, err := store.MarkSeen(ctx, "TH210825001")
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Error("first mark must report unseen")
	}

	seen, err = store.MarkSeen(ctx, "TH210825001")
	if err != nil {
		t.Fatal(err)
	}
	if !seen {
		t.Error("second mark must report already seen")
	}
}

func TestMemorySeenStoreSeenDoesNotRecord(t *testing.T) {
	store := NewMemorySeenStore(10)
	ctx := context.Background()

	seen, err := store.Seen(ctx, "TH210825001")
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Error("unknown entry must read unseen")
	}

	// A read must not mark; only MarkSeen records.
	if _, err := store.Seen(ctx, "TH210825001"); err != nil {
		t.Fatal(err)
	}
	marked, err := store.MarkSeen(ctx, "TH210825001")
	if err != nil {
		t.Fatal(err)
	}
	if marked {
		t.Error("entry only read before must mark as fresh")
	}

	seen, err = store.Seen(ctx, "TH210825001")
	if err != nil {
		t.Fatal(err)
	}
	if !seen {
		t.Error("marked entry must read seen")
	}
}

func TestMemorySeenStoreEvictsOldest(t *testing.T) {
	store := NewMemorySeenStore(3)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := store.MarkSeen(ctx, fmt.Sprintf("TH21082500%d", i)); err != nil {
			t.Fatal(err)
		}
	}

	// Entry 0 was evicted by entry 3, so it reads as fresh again.
	seen, err := store.MarkSeen(ctx, "TH210825000")
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Error("evicted entry must look unseen")
	}

	// Entry 3 is still resident.
	seen, err = store.MarkSeen(ctx, "TH210825003")
	if err != nil {
		t.Fatal(err)
	}
	if !seen {
		t.Error("resident entry must stay seen")
	}
}

func TestWebhookSinkBlankURLIsNoOp(t *testing.T) {
	sink := NewWebhookSink("", newNopLogger())
	err := sink.Send(context.Background(), "ops@example.com", TicketSummary{Number: "TH210825001"})
	if err != nil {
		t.Fatalf("blank URL must be a logging no-op, got %v", err)
	}
}
