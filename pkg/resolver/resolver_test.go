package resolver

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ticketwise/backend/pkg/ai"
	"github.com/ticketwise/backend/pkg/hnsw"
	"github.com/ticketwise/backend/pkg/retrieval"
	"github.com/ticketwise/backend/pkg/ticket"
)

// stubAIClient is a deterministic in-memory ai.TicketAIClient. Embeddings
// are looked up by input text; generation returns canned output.
type stubAIClient struct {
	vectors       map[string][]float32
	defaultVector []float32

	completion      string
	completionErr   error
	completionDelay time.Duration

	confident  bool
	suggestion string

	lastSystem  string
	lastUser    string
	formatCalls int
}

func (c *stubAIClient) GenerateEmbedding(_ context.Context, input []byte) ([]float32, error) {
	if v, ok := c.vectors[string(input)]; ok {
		return v, nil
	}
	return c.defaultVector, nil
}

func (c *stubAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	options := ai.GenerateOptions{}
	for _, o := range opts {
		o(&options)
	}
	c.lastSystem = strings.Join(options.SystemPrompts, "\n")
	c.lastUser = prompt

	if c.completionDelay > 0 {
		select {
		case <-time.After(c.completionDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if c.completionErr != nil {
		return "", c.completionErr
	}
	return c.completion, nil
}

func (c *stubAIClient) GenerateCompletionWithFormat(ctx context.Context, _ string, _ string, prompt string, out any, opts ...ai.GenerateOption) error {
	options := ai.GenerateOptions{}
	for _, o := range opts {
		o(&options)
	}
	c.lastSystem = strings.Join(options.SystemPrompts, "\n")
	c.lastUser = prompt
	c.formatCalls++

	if c.completionErr != nil {
		return c.completionErr
	}
	v, ok := out.(*suggestionVerdict)
	if !ok {
		return errors.New("unexpected output type")
	}
	v.Confident = c.confident
	v.Suggestion = c.suggestion
	return nil
}

func (c *stubAIClient) ResetMetrics()               {}
func (c *stubAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func testConfig() Config {
	return Config{
		Retrieval:         retrieval.Config{TopK: 3, Floor: 0.5},
		GenerationTimeout: time.Second,
	}
}

func publishCorpus(t *testing.T, r *Resolver, client *stubAIClient, tickets []ticket.Ticket) {
	t.Helper()
	snap, err := BuildSnapshot(context.Background(), client, "test-model", hnsw.DefaultConfig(4), tickets)
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}
	r.Publish(snap)
}

func TestResolveResolvedMatch(t *testing.T) {
	t1 := ticket.Ticket{
		ID:         "T1",
		Issue:      "printer not connecting to wifi",
		Resolved:   true,
		Resolution: "restart printer and reconnect",
	}
	client := &stubAIClient{
		vectors: map[string][]float32{
			t1.Text():                           {1, 0, 0, 0},
			"printer won't join wireless network": {0.95, 0.05, 0, 0},
		},
		defaultVector: []float32{0, 0, 0, 1},
		completion:    "Please restart the printer and reconnect. Best, your Smart assistant",
	}

	r, err := New(client, testConfig())
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	publishCorpus(t, r, client, []ticket.Ticket{t1})

	res, err := r.Resolve(context.Background(), ticket.NewTicket{
		ID:    "new-1",
		Issue: "printer won't join wireless network",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.ContextKind != retrieval.ResolvedMatch {
		t.Fatalf("expected resolved_match, got %s", res.ContextKind)
	}
	if len(res.Matches) != 1 || res.Matches[0].TicketID != "T1" || !res.Matches[0].Resolved {
		t.Fatalf("expected T1 resolved in matches, got %+v", res.Matches)
	}
	if res.GeneratedText == nil || *res.GeneratedText == "" {
		t.Fatalf("expected generated text")
	}
	if !strings.Contains(client.lastSystem, "restart printer and reconnect") {
		t.Errorf("resolved prompt must carry the prior resolution")
	}
}

func TestResolveUnresolvedMatch(t *testing.T) {
	t1 := ticket.Ticket{ID: "U1", Issue: "VPN drops hourly", Resolved: false}
	client := &stubAIClient{
		vectors: map[string][]float32{
			t1.Text(): {1, 0, 0, 0},
		},
		defaultVector: []float32{0.9, 0.1, 0, 0},
		completion:    "This issue is still being investigated. Best, your Smart assistant",
	}

	r, err := New(client, testConfig())
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	publishCorpus(t, r, client, []ticket.Ticket{t1})

	res, err := r.Resolve(context.Background(), ticket.NewTicket{ID: "new-1", Issue: "VPN keeps dropping"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.ContextKind != retrieval.UnresolvedMatch {
		t.Fatalf("expected unresolved_match, got %s", res.ContextKind)
	}
	if !strings.Contains(client.lastSystem, "none of these similar tickets have been resolved") {
		t.Errorf("unresolved prompt must not claim a resolution exists")
	}
}

func TestResolveNoMatchStillGenerates(t *testing.T) {
	t1 := ticket.Ticket{ID: "T1", Issue: "printer offline", Resolved: true, Resolution: "power cycle"}
	client := &stubAIClient{
		vectors: map[string][]float32{
			t1.Text(): {1, 0, 0, 0},
		},
		// query lands orthogonal to the whole corpus
		defaultVector: []float32{0, 0, 0, 1},
		confident:     true,
		suggestion:    "Check the audio driver version",
	}

	r, err := New(client, testConfig())
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	publishCorpus(t, r, client, []ticket.Ticket{t1})

	res, err := r.Resolve(context.Background(), ticket.NewTicket{ID: "new-1", Issue: "no sound from speakers"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.ContextKind != retrieval.NoMatch {
		t.Fatalf("expected no_match, got %s", res.ContextKind)
	}
	if len(res.Matches) != 0 {
		t.Fatalf("expected no matches, got %+v", res.Matches)
	}
	if client.formatCalls != 1 {
		t.Fatalf("generation must still be invoked on the no-match path")
	}
	if res.GeneratedText == nil || !strings.Contains(*res.GeneratedText, "No matching tickets found") {
		t.Fatalf("expected no-match response, got %v", res.GeneratedText)
	}
	if !strings.Contains(*res.GeneratedText, "Check the audio driver version") {
		t.Errorf("confident suggestion must be included")
	}
}

func TestResolveNoMatchUnconfidentSuggestionDropped(t *testing.T) {
	client := &stubAIClient{
		defaultVector: []float32{0, 0, 0, 1},
		confident:     false,
		suggestion:    "maybe reboot",
	}

	r, err := New(client, testConfig())
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	res, err := r.Resolve(context.Background(), ticket.NewTicket{ID: "new-1", Issue: "strange error"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.ContextKind != retrieval.NoMatch {
		t.Fatalf("expected no_match for empty corpus, got %s", res.ContextKind)
	}
	if res.GeneratedText == nil || !strings.Contains(*res.GeneratedText, "No immediate solution available.") {
		t.Fatalf("unconfident suggestion must be dropped, got %v", res.GeneratedText)
	}
}

func TestResolveGenerationTimeoutDegrades(t *testing.T) {
	t1 := ticket.Ticket{ID: "T1", Issue: "printer offline", Resolved: true, Resolution: "power cycle"}
	client := &stubAIClient{
		vectors: map[string][]float32{
			t1.Text(): {1, 0, 0, 0},
		},
		defaultVector:   []float32{0.95, 0.05, 0, 0},
		completionDelay: time.Second,
	}

	cfg := testConfig()
	cfg.GenerationTimeout = 20 * time.Millisecond
	r, err := New(client, cfg)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	publishCorpus(t, r, client, []ticket.Ticket{t1})

	res, err := r.Resolve(context.Background(), ticket.NewTicket{ID: "new-1", Issue: "printer is offline"})
	if err != nil {
		t.Fatalf("timeout must not fail the request: %v", err)
	}
	if res.ContextKind != retrieval.ResolvedMatch {
		t.Fatalf("context kind must survive generation timeout, got %s", res.ContextKind)
	}
	if len(res.Matches) != 1 {
		t.Fatalf("matches must survive generation timeout, got %+v", res.Matches)
	}
	if res.GeneratedText != nil {
		t.Fatalf("expected nil generated text on timeout")
	}
}

func TestResolveGenerationErrorDegrades(t *testing.T) {
	t1 := ticket.Ticket{ID: "T1", Issue: "printer offline", Resolved: true, Resolution: "power cycle"}
	client := &stubAIClient{
		vectors: map[string][]float32{
			t1.Text(): {1, 0, 0, 0},
		},
		defaultVector: []float32{0.95, 0.05, 0, 0},
		completionErr: errors.New("model unavailable"),
	}

	r, err := New(client, testConfig())
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	publishCorpus(t, r, client, []ticket.Ticket{t1})

	res, err := r.Resolve(context.Background(), ticket.NewTicket{ID: "new-1", Issue: "printer is offline"})
	if err != nil {
		t.Fatalf("generation failure must not fail the request: %v", err)
	}
	if res.GeneratedText != nil {
		t.Fatalf("expected nil generated text on generation failure")
	}
	if len(res.Matches) != 1 {
		t.Fatalf("matches must survive generation failure")
	}
}

func TestPublishSwapsSnapshot(t *testing.T) {
	t1 := ticket.Ticket{ID: "T1", Issue: "printer offline", Resolved: true, Resolution: "power cycle"}
	t2 := ticket.Ticket{ID: "T2", Issue: "screen flickers", Resolved: true, Resolution: "update driver"}
	client := &stubAIClient{
		vectors: map[string][]float32{
			t1.Text(): {1, 0, 0, 0},
			t2.Text(): {0.95, 0.05, 0, 0},
		},
		defaultVector: []float32{0.97, 0.03, 0, 0},
		completion:    "ok",
	}

	r, err := New(client, testConfig())
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	if _, _, _, err := r.Status(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady before first publish, got %v", err)
	}

	publishCorpus(t, r, client, []ticket.Ticket{t1})
	size, model, _, err := r.Status()
	if err != nil || size != 1 || model != "test-model" {
		t.Fatalf("unexpected status: %d %s %v", size, model, err)
	}

	publishCorpus(t, r, client, []ticket.Ticket{t1, t2})
	size, _, _, err = r.Status()
	if err != nil || size != 2 {
		t.Fatalf("expected swapped snapshot with 2 tickets, got %d %v", size, err)
	}

	res, err := r.Resolve(context.Background(), ticket.NewTicket{ID: "new-1", Issue: "anything"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Matches) != 2 {
		t.Fatalf("expected both tickets above floor after rebuild, got %+v", res.Matches)
	}
}

func TestBuildSnapshotRejectsDuplicateIDs(t *testing.T) {
	client := &stubAIClient{defaultVector: []float32{1, 0, 0, 0}}
	_, err := BuildSnapshot(context.Background(), client, "test-model", hnsw.DefaultConfig(4), []ticket.Ticket{
		{ID: "T1", Issue: "a", Resolved: true, Resolution: "x"},
		{ID: "T1", Issue: "b", Resolved: true, Resolution: "y"},
	})
	if !errors.Is(err, hnsw.ErrDuplicateID) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}
