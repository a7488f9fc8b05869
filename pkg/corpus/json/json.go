// Package json parses ticket corpora from JSON arrays using the external
// ticket schema (string dates in the "date" field).
package json

import (
	"encoding/json"
	"fmt"

	"github.com/ticketwise/backend/pkg/corpus/csv"
	"github.com/ticketwise/backend/pkg/ticket"
)

type record struct {
	ID          string `json:"id"`
	Issue       string `json:"issue"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Resolution  string `json:"resolution"`
	Resolved    bool   `json:"resolved"`
	Date        string `json:"date"`
}

// ParseTickets decodes ticket records from a JSON array. Records with an
// empty id are skipped.
func ParseTickets(content []byte) ([]ticket.Ticket, error) {
	var records []record
	if err := json.Unmarshal(content, &records); err != nil {
		return nil, fmt.Errorf("parse json corpus: %w", err)
	}

	tickets := make([]ticket.Ticket, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		t := ticket.Ticket{
			ID:          r.ID,
			Issue:       r.Issue,
			Category:    r.Category,
			Description: r.Description,
			Resolved:    r.Resolved,
			CreatedAt:   csv.ParseDate(r.Date),
		}
		if r.Resolved {
			t.Resolution = r.Resolution
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}
