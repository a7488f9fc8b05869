// Package retrieval turns raw nearest-neighbor hits into a decision the
// generation pipeline can act on. It applies the similarity floor, splits
// surviving matches by resolution status and classifies the outcome into
// exactly one generation context.
package retrieval

import (
	"fmt"

	"github.com/ticketwise/backend/internal/util"
	"github.com/ticketwise/backend/pkg/hnsw"
	"github.com/ticketwise/backend/pkg/ticket"
)

// Match pairs a corpus ticket with its similarity score for a query.
type Match struct {
	Ticket ticket.Ticket `json:"ticket"`
	Score  float32       `json:"score"`
}

// Result holds the floor-filtered matches for one query, split by
// resolution status. Both slices are ordered by descending score, ties
// broken by ascending ticket id.
type Result struct {
	Resolved   []Match
	Unresolved []Match
}

// Config controls retrieval behavior.
type Config struct {
	TopK  int     // number of neighbors requested from the index
	Floor float32 // minimum similarity for a hit to count as a match
	Ef    int     // search candidate-list size, 0 uses the index default
}

// DefaultConfig returns the retrieval configuration, honoring the
// RETRIEVAL_TOP_K and RETRIEVAL_SIMILARITY_FLOOR environment overrides.
func DefaultConfig() Config {
	return Config{
		TopK:  int(util.GetEnvNumeric("RETRIEVAL_TOP_K", 3)),
		Floor: float32(util.GetEnvFloat("RETRIEVAL_SIMILARITY_FLOOR", 0.5)),
	}
}

// Orchestrator issues queries against a published index and resolves hit
// ids back to their ticket records. It holds read-only references and is
// safe for concurrent use.
type Orchestrator struct {
	index   *hnsw.Index
	tickets map[string]ticket.Ticket
	cfg     Config
}

// NewOrchestrator creates an Orchestrator over a populated index and the
// ticket records backing it.
func NewOrchestrator(index *hnsw.Index, tickets map[string]ticket.Ticket, cfg Config) *Orchestrator {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	return &Orchestrator{
		index:   index,
		tickets: tickets,
		cfg:     cfg,
	}
}

// Retrieve searches the index for the query embedding and returns the
// matches at or above the similarity floor, split by resolution status.
// An empty index yields an empty Result, not an error.
func (o *Orchestrator) Retrieve(query []float32) (Result, error) {
	hits, err := o.index.Search(query, o.cfg.TopK, o.cfg.Ef)
	if err != nil {
		return Result{}, err
	}
	return o.partition(hits)
}

func (o *Orchestrator) partition(hits []hnsw.Hit) (Result, error) {
	var res Result
	for _, h := range hits {
		if h.Score < o.cfg.Floor {
			continue
		}
		t, ok := o.tickets[h.ID]
		if !ok {
			return Result{}, fmt.Errorf("index returned unknown ticket id %q", h.ID)
		}
		m := Match{Ticket: t, Score: h.Score}
		if t.Resolved {
			res.Resolved = append(res.Resolved, m)
		} else {
			res.Unresolved = append(res.Unresolved, m)
		}
	}
	return res, nil
}
