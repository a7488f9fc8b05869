package json

import (
	"testing"
)

func TestParseTickets(t *testing.T) {
	content := []byte(`[
		{"id": "T1", "issue": "printer offline", "category": "Hardware", "description": "offline since morning", "resolved": true, "resolution": "power cycle", "date": "2024-03-01"},
		{"id": "T2", "issue": "VPN drops", "resolved": false, "resolution": "stale text", "date": ""},
		{"id": "", "issue": "skipped"}
	]`)

	tickets, err := ParseTickets(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tickets) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(tickets))
	}
	if tickets[0].Resolution != "power cycle" {
		t.Errorf("resolved ticket must keep its resolution")
	}
	if tickets[1].Resolution != "" {
		t.Errorf("unresolved ticket must carry no resolution")
	}
	if tickets[0].CreatedAt.IsZero() {
		t.Errorf("date must parse")
	}
}

func TestParseTicketsInvalid(t *testing.T) {
	if _, err := ParseTickets([]byte("{not an array}")); err == nil {
		t.Fatalf("expected error for malformed json")
	}
}
