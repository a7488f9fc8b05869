package prompt

import (
	"strings"
	"testing"

	"github.com/ticketwise/backend/pkg/retrieval"
	"github.com/ticketwise/backend/pkg/ticket"
)

func newTestTicket() ticket.NewTicket {
	return ticket.NewTicket{
		ID:          "new-1",
		Issue:       "Cannot connect to VPN after system update",
		Category:    "Network",
		Description: "VPN client times out since the last OS patch",
	}
}

func TestBuildResolvedIncludesResolution(t *testing.T) {
	b, err := NewBuilder(0)
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}

	gc := retrieval.GenerationContext{
		Kind: retrieval.ResolvedMatch,
		Matches: []retrieval.Match{
			{
				Ticket: ticket.Ticket{
					ID:         "t1",
					Issue:      "printer not connecting to wifi",
					Category:   "Hardware",
					Resolved:   true,
					Resolution: "restart printer and reconnect",
				},
				Score: 0.91,
			},
		},
	}

	p, err := b.Build(gc, newTestTicket())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(p.System, "restart printer and reconnect") {
		t.Errorf("resolved prompt must carry the resolution text")
	}
	if !strings.Contains(p.User, "Cannot connect to VPN") {
		t.Errorf("user turn must carry the new ticket")
	}
}

func TestBuildUnresolvedDoesNotClaimResolution(t *testing.T) {
	b, err := NewBuilder(0)
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}

	gc := retrieval.GenerationContext{
		Kind: retrieval.UnresolvedMatch,
		Matches: []retrieval.Match{
			{
				Ticket: ticket.Ticket{
					ID:          "t2",
					Issue:       "VPN drops every hour",
					Category:    "Network",
					Description: "tried reinstalling client, no effect",
					Resolved:    false,
				},
				Score: 0.8,
			},
		},
	}

	p, err := b.Build(gc, newTestTicket())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(p.System, "none of these similar tickets have been resolved") {
		t.Errorf("unresolved prompt must state that no match is resolved")
	}
	if !strings.Contains(p.System, "Do not claim that a resolution exists") {
		t.Errorf("unresolved prompt must forbid claiming a resolution")
	}
	if strings.Contains(p.System, `"resolution"`) {
		t.Errorf("unresolved prompt must not carry a resolution field")
	}
}

func TestBuildNoMatchForbidsFabrication(t *testing.T) {
	b, err := NewBuilder(0)
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}

	p, err := b.Build(retrieval.GenerationContext{Kind: retrieval.NoMatch}, newTestTicket())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(p.System, "No similar historical ticket was found") {
		t.Errorf("no-match prompt must state that nothing was found")
	}
	if !strings.Contains(p.System, "do not fabricate") {
		t.Errorf("no-match prompt must forbid fabrication")
	}
	if !strings.Contains(p.User, "Issue:") {
		t.Errorf("no-match user turn must carry the issue")
	}
}

func TestBuildTruncatesToTokenBudget(t *testing.T) {
	// Tiny budget: only the first match fits, the rest are dropped.
	b, err := NewBuilder(1)
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}

	long := strings.Repeat("very long description of the failure mode ", 50)
	gc := retrieval.GenerationContext{
		Kind: retrieval.ResolvedMatch,
		Matches: []retrieval.Match{
			{Ticket: ticket.Ticket{ID: "t1", Issue: "a", Description: long, Resolved: true, Resolution: "fix a"}, Score: 0.9},
			{Ticket: ticket.Ticket{ID: "t2", Issue: "b", Description: long, Resolved: true, Resolution: "fix b"}, Score: 0.8},
		},
	}

	p, err := b.Build(gc, newTestTicket())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(p.System, `"t1"`) {
		t.Errorf("first match must always be included")
	}
	if strings.Contains(p.System, `"t2"`) {
		t.Errorf("second match must be dropped under the budget")
	}
	if !strings.Contains(p.System, "details from 1 similar") {
		t.Errorf("match count must reflect truncation, got: %.120s", p.System)
	}
}

func TestBuildUnknownKindErrors(t *testing.T) {
	b, err := NewBuilder(0)
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	if _, err := b.Build(retrieval.GenerationContext{Kind: "bogus"}, newTestTicket()); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
