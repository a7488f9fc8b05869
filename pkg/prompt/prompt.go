// Package prompt renders the generation prompt for a classified retrieval
// outcome. There are exactly three templates, one per generation context,
// and rendering is a pure string transform over the classified matches.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ticketwise/backend/pkg/retrieval"
	"github.com/ticketwise/backend/pkg/ticket"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// defaultMatchTokenBudget caps the token count of the serialized
	// retrieved-ticket sections so the full prompt stays inside the
	// generation model's input window.
	defaultMatchTokenBudget = 3000

	encodingName = "o200k_base"
)

// Prompt is a rendered generation request: system instructions plus the
// user turn carrying the new ticket.
type Prompt struct {
	System string
	User   string
}

// Builder renders context-specific prompts. A Builder is safe for
// concurrent use once created.
type Builder struct {
	matchTokenBudget int
	enc              *tiktoken.Tiktoken
}

// NewBuilder creates a Builder. matchTokenBudget caps the tokens spent on
// retrieved-ticket detail; zero or negative uses the default.
func NewBuilder(matchTokenBudget int) (*Builder, error) {
	if matchTokenBudget <= 0 {
		matchTokenBudget = defaultMatchTokenBudget
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load token encoding: %w", err)
	}
	return &Builder{
		matchTokenBudget: matchTokenBudget,
		enc:              enc,
	}, nil
}

// matchPayload is the serialized form of a retrieved ticket inside a
// prompt. Resolution is included only for resolved matches.
type matchPayload struct {
	TicketID        string  `json:"ticket_id"`
	SimilarityScore float32 `json:"similarity_score"`
	Issue           string  `json:"issue"`
	Category        string  `json:"category"`
	Description     string  `json:"description"`
	Resolved        bool    `json:"resolved"`
	Resolution      string  `json:"resolution,omitempty"`
}

// Build renders the prompt for a generation context and the new ticket.
// The context kind selects one of three fixed templates.
func (b *Builder) Build(gc retrieval.GenerationContext, newTicket ticket.NewTicket) (Prompt, error) {
	userJSON, err := json.MarshalIndent(newTicket, "", "  ")
	if err != nil {
		return Prompt{}, fmt.Errorf("serialize new ticket: %w", err)
	}

	switch gc.Kind {
	case retrieval.ResolvedMatch:
		section, n, err := b.renderMatches(gc.Matches, true)
		if err != nil {
			return Prompt{}, err
		}
		return Prompt{
			System: fmt.Sprintf(resolvedTemplate, n, section),
			User:   fmt.Sprintf("New Ticket: %s", userJSON),
		}, nil
	case retrieval.UnresolvedMatch:
		section, n, err := b.renderMatches(gc.Matches, false)
		if err != nil {
			return Prompt{}, err
		}
		return Prompt{
			System: fmt.Sprintf(unresolvedTemplate, n, section),
			User:   fmt.Sprintf("New Ticket: %s", userJSON),
		}, nil
	case retrieval.NoMatch:
		return Prompt{
			System: noMatchTemplate,
			User:   fmt.Sprintf("Issue: %s", userJSON),
		}, nil
	default:
		return Prompt{}, fmt.Errorf("unknown generation context kind %q", gc.Kind)
	}
}

// renderMatches serializes matches into the prompt section, dropping
// trailing matches once the token budget is exceeded. At least one match
// is always included. Returns the section and the number of matches kept.
func (b *Builder) renderMatches(matches []retrieval.Match, includeResolution bool) (string, int, error) {
	payloads := make([]matchPayload, 0, len(matches))
	spent := 0
	for _, m := range matches {
		p := matchPayload{
			TicketID:        m.Ticket.ID,
			SimilarityScore: m.Score,
			Issue:           m.Ticket.Issue,
			Category:        m.Ticket.Category,
			Description:     m.Ticket.Description,
			Resolved:        m.Ticket.Resolved,
		}
		if includeResolution {
			p.Resolution = m.Ticket.Resolution
		}

		encoded, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return "", 0, fmt.Errorf("serialize match %s: %w", m.Ticket.ID, err)
		}
		cost := len(b.enc.Encode(string(encoded), nil, nil))
		if len(payloads) > 0 && spent+cost > b.matchTokenBudget {
			break
		}
		spent += cost
		payloads = append(payloads, p)
	}

	section, err := json.MarshalIndent(payloads, "", "  ")
	if err != nil {
		return "", 0, err
	}
	return string(section), len(payloads), nil
}

var resolvedTemplate = strings.TrimSpace(`
You are an AI assistant that helps human agents respond to support tickets.

I will provide you with a new support ticket and details from %d similar resolved tickets from our database.

Your task is to:
1. Analyze the new ticket and the resolved similar tickets
2. Create a coherent response that addresses the new ticket's issue
3. Include the most relevant solution from the resolved tickets
4. End the message by saying: Best, your Smart assistant

Here are the similar resolved tickets:
%s

Please create a response that the agent can use to address the new ticket. Be concise but comprehensive.
`)

var unresolvedTemplate = strings.TrimSpace(`
You are an AI assistant that helps human agents respond to support tickets.

I will provide you with a new support ticket and details from %d similar tickets from our database, but none of these similar tickets have been resolved.

Your task is to:
1. Analyze the new ticket and the similar unresolved tickets
2. Create a coherent response that acknowledges the ongoing nature of this issue
3. Share details about the similar tickets and what approaches did not work
4. Suggest potential next steps based on the history of attempts
5. Format your response to be ready for a human agent to review and send
6. End the message by saying: Best, your Smart assistant

Here are the similar unresolved tickets:
%s

Please create a response that the agent can use to address the new ticket, acknowledging that we don't have a proven solution yet. Do not claim that a resolution exists.
`)

var noMatchTemplate = strings.TrimSpace(`
You are a technical support assistant. No similar historical ticket was found in the database for the following issue. State that clearly and do not fabricate a resolution. Provide a very brief solution suggestion (max 15 words) ONLY if you are highly confident. If not confident, respond with 'No immediate solution available.'
`)
