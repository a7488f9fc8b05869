// Package csv parses ticket corpora from CSV content. The header row maps
// columns to ticket fields; header matching is tolerant of case, spaces
// and underscores so exports like "Ticket ID" and "ticket_id" both work.
package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ticketwise/backend/pkg/ticket"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006",
}

// ParseTickets decodes ticket records from CSV content. The first
// non-empty row is the header; rows with an empty id are skipped.
func ParseTickets(content []byte) ([]ticket.Ticket, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var cols map[string]int
	var tickets []ticket.Ticket

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if isEmptyRow(record) {
			continue
		}

		if cols == nil {
			cols, err = mapHeader(record)
			if err != nil {
				return nil, err
			}
			continue
		}

		t := ticket.Ticket{
			ID:          field(record, cols, "id"),
			Issue:       field(record, cols, "issue"),
			Category:    field(record, cols, "category"),
			Description: field(record, cols, "description"),
			Resolved:    ParseBool(field(record, cols, "resolved")),
			CreatedAt:   ParseDate(field(record, cols, "date")),
		}
		if t.Resolved {
			t.Resolution = field(record, cols, "resolution")
		}
		if t.ID == "" {
			continue
		}
		tickets = append(tickets, t)
	}

	if cols == nil {
		return nil, fmt.Errorf("csv corpus has no header row")
	}
	return tickets, nil
}

// ParseBool interprets common truthy spellings; everything else is false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y":
		return true
	default:
		return false
	}
}

// ParseDate tries the known corpus date layouts. Unparseable dates yield
// the zero time rather than failing the whole row.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func mapHeader(record []string) (map[string]int, error) {
	cols := make(map[string]int, len(record))
	for i, raw := range record {
		switch normalizeHeader(raw) {
		case "id", "ticketid":
			cols["id"] = i
		case "issue":
			cols["issue"] = i
		case "category":
			cols["category"] = i
		case "description":
			cols["description"] = i
		case "resolution":
			cols["resolution"] = i
		case "resolved":
			cols["resolved"] = i
		case "date", "createdat":
			cols["date"] = i
		}
	}
	if _, ok := cols["id"]; !ok {
		return nil, fmt.Errorf("csv corpus header has no id column")
	}
	if _, ok := cols["issue"]; !ok {
		return nil, fmt.Errorf("csv corpus header has no issue column")
	}
	return cols, nil
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

func field(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func isEmptyRow(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
