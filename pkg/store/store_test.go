package store

import (
	"context"
	"testing"

	"github.com/ticketwise/backend/pkg/ticket"
)

func TestMemoryStoreReplaceAndLoad(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	records := []Record{
		{Ticket: ticket.Ticket{ID: "T1", Issue: "a", Resolved: true, Resolution: "x"}, Embedding: []float32{1, 0}},
		{Ticket: ticket.Ticket{ID: "T2", Issue: "b"}, Embedding: []float32{0, 1}},
	}
	if err := s.ReplaceAll(ctx, "model-a", records); err != nil {
		t.Fatalf("replace: %v", err)
	}

	loaded, err := s.LoadAll(ctx, "model-a")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 || loaded[0].Ticket.ID != "T1" {
		t.Fatalf("unexpected records: %+v", loaded)
	}

	// a different model version sees nothing
	other, err := s.LoadAll(ctx, "model-b")
	if err != nil {
		t.Fatalf("load other: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no records for other model version, got %d", len(other))
	}

	count, err := s.Count(ctx)
	if err != nil || count != 2 {
		t.Fatalf("unexpected count: %d %v", count, err)
	}

	// replace swaps wholesale
	if err := s.ReplaceAll(ctx, "model-a", records[:1]); err != nil {
		t.Fatalf("replace: %v", err)
	}
	count, _ = s.Count(ctx)
	if count != 1 {
		t.Fatalf("expected 1 after swap, got %d", count)
	}
}
