package ticket

import (
	"fmt"
	"strings"
	"time"
)

// Ticket is an immutable record of a support ticket in the historical corpus.
//
// ID must be unique across the corpus. Resolution is only meaningful when
// Resolved is true; an unresolved ticket carries no resolution text.
type Ticket struct {
	ID          string    `json:"id"`
	Issue       string    `json:"issue"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Resolution  string    `json:"resolution,omitempty"`
	Resolved    bool      `json:"resolved"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewTicket is an incoming ticket to resolve. It carries no resolution
// state; that is what the pipeline is asked to produce.
type NewTicket struct {
	ID          string    `json:"id"`
	Issue       string    `json:"issue" validate:"required"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Text combines the ticket fields into the single string that is embedded.
// Empty fields are skipped so missing categories do not shift the text.
func (t Ticket) Text() string {
	return combineFields(t.Issue, t.Category, t.Description)
}

// Text combines the new ticket's fields the same way historical tickets
// are combined, so query and corpus embeddings live in the same space.
func (t NewTicket) Text() string {
	return combineFields(t.Issue, t.Category, t.Description)
}

// Validate checks corpus integrity rules on a historical ticket.
func (t Ticket) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("ticket has empty id")
	}
	if !t.Resolved && t.Resolution != "" {
		return fmt.Errorf("ticket %s: unresolved ticket carries a resolution", t.ID)
	}
	return nil
}

func combineFields(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}
