package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/ticketwise/backend/internal/util"
	"github.com/ticketwise/backend/pkg/ai"
	"github.com/ticketwise/backend/pkg/hnsw"
	"github.com/ticketwise/backend/pkg/logger"
	"github.com/ticketwise/backend/pkg/ticket"
)

// Snapshot is one published generation of the corpus: a fully built index
// plus the ticket records backing it. Snapshots are immutable after
// construction; a rebuild produces a new Snapshot and swaps it in.
type Snapshot struct {
	Index   *hnsw.Index
	Tickets map[string]ticket.Ticket
}

// Size returns the number of searchable tickets in the snapshot.
func (s *Snapshot) Size() int {
	return s.Index.Size()
}

// ModelVersion returns the embedding model the snapshot was built under.
func (s *Snapshot) ModelVersion() string {
	return s.Index.ModelVersion()
}

// BuiltAt returns when the snapshot's index was constructed.
func (s *Snapshot) BuiltAt() time.Time {
	return s.Index.BuiltAt()
}

// BuildSnapshot embeds a ticket corpus and constructs a fresh index over
// it. Construction is single-threaded; the embedding calls are batched
// through the client. Ticket validation failures and duplicate ids abort
// the build, nothing partial is published.
func BuildSnapshot(
	ctx context.Context,
	client ai.TicketAIClient,
	modelVersion string,
	cfg hnsw.Config,
	tickets []ticket.Ticket,
) (*Snapshot, error) {
	byID := make(map[string]ticket.Ticket, len(tickets))
	inputs := make([][]byte, 0, len(tickets))
	for _, t := range tickets {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("corpus validation: %w", err)
		}
		if _, ok := byID[t.ID]; ok {
			return nil, fmt.Errorf("corpus validation: %w: %s", hnsw.ErrDuplicateID, t.ID)
		}
		byID[t.ID] = t
		inputs = append(inputs, []byte(t.Text()))
	}

	start := time.Now()
	embeddings, err := util.RetryWithContext(ctx, 3, func(rCtx context.Context) ([][]float32, error) {
		return ai.GenerateEmbeddings(rCtx, client, inputs)
	})
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}
	if len(embeddings) != len(tickets) {
		return nil, fmt.Errorf("embed corpus: got %d embeddings for %d tickets", len(embeddings), len(tickets))
	}

	index := hnsw.New(cfg, modelVersion)
	for i, t := range tickets {
		if err := index.Insert(t.ID, embeddings[i]); err != nil {
			return nil, fmt.Errorf("index ticket %s: %w", t.ID, err)
		}
	}

	logger.Info("[Resolver] snapshot built",
		"tickets", len(tickets),
		"dimension", cfg.Dimension,
		"model", modelVersion,
		"took", time.Since(start).String(),
	)

	return &Snapshot{Index: index, Tickets: byID}, nil
}

// BuildSnapshotFromVectors constructs a snapshot from tickets with
// already-computed embeddings, as loaded from the ticket store. No
// embedding calls are made.
func BuildSnapshotFromVectors(
	modelVersion string,
	cfg hnsw.Config,
	tickets []ticket.Ticket,
	vectors [][]float32,
) (*Snapshot, error) {
	if len(tickets) != len(vectors) {
		return nil, fmt.Errorf("got %d vectors for %d tickets", len(vectors), len(tickets))
	}

	index := hnsw.New(cfg, modelVersion)
	byID := make(map[string]ticket.Ticket, len(tickets))
	for i, t := range tickets {
		if err := index.Insert(t.ID, vectors[i]); err != nil {
			return nil, fmt.Errorf("index ticket %s: %w", t.ID, err)
		}
		byID[t.ID] = t
	}
	return &Snapshot{Index: index, Tickets: byID}, nil
}

// LoadSnapshot restores a snapshot from a persisted index artifact and
// the ticket records it was built over. The artifact's embedding model
// must match modelVersion.
func LoadSnapshot(path string, modelVersion string, tickets []ticket.Ticket) (*Snapshot, error) {
	index, err := hnsw.LoadFile(path, modelVersion)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]ticket.Ticket, len(tickets))
	for _, t := range tickets {
		byID[t.ID] = t
	}
	return &Snapshot{Index: index, Tickets: byID}, nil
}
