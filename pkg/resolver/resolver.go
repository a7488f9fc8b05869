// Package resolver runs the ticket resolution pipeline: embed the new
// ticket, search the published index, classify the retrieval outcome,
// render the matching prompt and generate the guidance text. The index is
// held in an atomically swappable handle so rebuilds never disturb
// in-flight requests.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ticketwise/backend/internal/util"
	"github.com/ticketwise/backend/pkg/ai"
	"github.com/ticketwise/backend/pkg/logger"
	"github.com/ticketwise/backend/pkg/prompt"
	"github.com/ticketwise/backend/pkg/retrieval"
	"github.com/ticketwise/backend/pkg/ticket"
)

// ErrNotReady is returned by Status when no snapshot has been published.
var ErrNotReady = errors.New("no index snapshot published")

// Config controls the resolution pipeline.
type Config struct {
	Retrieval         retrieval.Config
	GenerationTimeout time.Duration
	MatchTokenBudget  int
}

// DefaultConfig returns the pipeline configuration, honoring the
// GENERATION_TIMEOUT_SEC environment override.
func DefaultConfig() Config {
	return Config{
		Retrieval:         retrieval.DefaultConfig(),
		GenerationTimeout: time.Duration(util.GetEnvNumeric("GENERATION_TIMEOUT_SEC", 60)) * time.Second,
	}
}

// MatchSummary is one retrieved ticket in a resolution result.
type MatchSummary struct {
	TicketID string  `json:"ticket_id"`
	Score    float32 `json:"score"`
	Resolved bool    `json:"resolved"`
}

// Result is the outcome of resolving one ticket. GeneratedText is nil
// when the generation call timed out or failed; the matches are still
// returned in that case.
type Result struct {
	RequestID     string                `json:"request_id"`
	Matches       []MatchSummary        `json:"matches"`
	GeneratedText *string               `json:"generated_text"`
	ContextKind   retrieval.ContextKind `json:"context_kind"`
}

// Resolver serves resolution requests against the currently published
// snapshot. Safe for concurrent use; Publish may be called while requests
// are in flight.
type Resolver struct {
	snapshot atomic.Pointer[Snapshot]
	client   ai.TicketAIClient
	builder  *prompt.Builder
	cfg      Config
}

// New creates a Resolver with no published snapshot. Requests served
// before the first Publish behave as against an empty corpus.
func New(client ai.TicketAIClient, cfg Config) (*Resolver, error) {
	if client == nil {
		return nil, fmt.Errorf("ai client is nil")
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 60 * time.Second
	}
	builder, err := prompt.NewBuilder(cfg.MatchTokenBudget)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		client:  client,
		builder: builder,
		cfg:     cfg,
	}, nil
}

// Publish atomically swaps in a new snapshot. In-flight requests finish
// against the snapshot they started with.
func (r *Resolver) Publish(s *Snapshot) {
	r.snapshot.Store(s)
	if s != nil {
		logger.Info("[Resolver] snapshot published",
			"tickets", s.Size(),
			"model", s.ModelVersion(),
		)
	}
}

// Status reports the published snapshot's size, embedding model version
// and build time. Returns ErrNotReady before the first Publish.
func (r *Resolver) Status() (size int, modelVersion string, builtAt time.Time, err error) {
	snap := r.snapshot.Load()
	if snap == nil {
		return 0, "", time.Time{}, ErrNotReady
	}
	return snap.Size(), snap.ModelVersion(), snap.BuiltAt(), nil
}

// Resolve runs the full pipeline for one new ticket. Retrieval failures
// surface as errors; generation failures degrade to a result with nil
// GeneratedText. Cancelling ctx aborts only this request.
func (r *Resolver) Resolve(ctx context.Context, newTicket ticket.NewTicket) (Result, error) {
	requestID, err := util.NewRequestID()
	if err != nil {
		return Result{}, err
	}

	gc, err := r.classify(ctx, newTicket)
	if err != nil {
		return Result{}, err
	}

	matches := make([]MatchSummary, 0, len(gc.Matches))
	for _, m := range gc.Matches {
		matches = append(matches, MatchSummary{
			TicketID: m.Ticket.ID,
			Score:    m.Score,
			Resolved: m.Ticket.Resolved,
		})
	}

	result := Result{
		RequestID:   requestID,
		Matches:     matches,
		ContextKind: gc.Kind,
	}

	text, err := r.generate(ctx, gc, newTicket)
	if err != nil {
		// Degraded result: retrieval stands, generation is dropped.
		logger.Warn("[Resolver] generation failed, returning retrieval-only result",
			"request", requestID,
			"context", string(gc.Kind),
			"err", err,
		)
		return result, nil
	}
	result.GeneratedText = &text

	return result, nil
}

func (r *Resolver) classify(ctx context.Context, newTicket ticket.NewTicket) (retrieval.GenerationContext, error) {
	snap := r.snapshot.Load()
	if snap == nil || snap.Size() == 0 {
		// Empty corpus is not an error, it classifies as no match.
		return retrieval.GenerationContext{Kind: retrieval.NoMatch}, nil
	}

	embedding, err := r.client.GenerateEmbedding(ctx, []byte(newTicket.Text()))
	if err != nil {
		return retrieval.GenerationContext{}, fmt.Errorf("embed ticket: %w", err)
	}

	orch := retrieval.NewOrchestrator(snap.Index, snap.Tickets, r.cfg.Retrieval)
	res, err := orch.Retrieve(embedding)
	if err != nil {
		return retrieval.GenerationContext{}, fmt.Errorf("retrieve: %w", err)
	}

	return retrieval.Classify(res), nil
}

func (r *Resolver) generate(ctx context.Context, gc retrieval.GenerationContext, newTicket ticket.NewTicket) (string, error) {
	p, err := r.builder.Build(gc, newTicket)
	if err != nil {
		return "", err
	}

	gCtx, cancel := context.WithTimeout(ctx, r.cfg.GenerationTimeout)
	defer cancel()

	if gc.Kind == retrieval.NoMatch {
		return r.generateNoMatch(gCtx, p)
	}

	return r.client.GenerateCompletion(gCtx, p.User,
		ai.WithSystemPrompts(p.System),
		ai.WithTemperature(0.3),
		ai.WithMaxTokens(1024),
	)
}

// suggestionVerdict is the structured verdict for the no-match path. The
// model only volunteers a direction when it is confident in it.
type suggestionVerdict struct {
	Confident  bool   `json:"confident" jsonschema_description:"True only when highly confident in the suggestion"`
	Suggestion string `json:"suggestion" jsonschema_description:"Very brief solution suggestion, max 15 words"`
}

func (r *Resolver) generateNoMatch(ctx context.Context, p prompt.Prompt) (string, error) {
	var verdict suggestionVerdict
	err := r.client.GenerateCompletionWithFormat(ctx,
		"suggestion_verdict",
		"Confidence-gated brief solution suggestion for an unmatched ticket",
		p.User,
		&verdict,
		ai.WithSystemPrompts(p.System),
		ai.WithTemperature(0.1),
		ai.WithMaxTokens(100),
	)
	if err != nil {
		return "", err
	}

	direction := "No immediate solution available."
	if verdict.Confident && verdict.Suggestion != "" {
		direction = verdict.Suggestion
	}
	return fmt.Sprintf(
		"No matching tickets found in the database.\n\nSuggested direction: %s\n\nBest, your Smart assistant",
		direction,
	), nil
}
