package csv

import (
	"testing"
	"time"
)

func TestParseTickets(t *testing.T) {
	content := []byte(`Ticket ID,Issue,Category,Description,Resolved,Resolution,Date
T1,printer not connecting to wifi,Hardware,"printer drops off the network, daily",true,restart printer and reconnect,2024-03-01
T2,VPN drops hourly,Network,client disconnects,false,,2024-03-02
,missing id row,Misc,skipped,false,,
`)

	tickets, err := ParseTickets(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tickets) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(tickets))
	}

	t1 := tickets[0]
	if t1.ID != "T1" || !t1.Resolved || t1.Resolution != "restart printer and reconnect" {
		t.Errorf("unexpected first ticket: %+v", t1)
	}
	if t1.Description != "printer drops off the network, daily" {
		t.Errorf("quoted field mangled: %q", t1.Description)
	}
	if t1.CreatedAt != time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("unexpected date: %v", t1.CreatedAt)
	}

	t2 := tickets[1]
	if t2.Resolved || t2.Resolution != "" {
		t.Errorf("unresolved ticket must carry no resolution: %+v", t2)
	}
}

func TestParseTicketsHeaderVariants(t *testing.T) {
	content := []byte("ticket_id,issue,resolved\nT1,broken,1\n")
	tickets, err := ParseTickets(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tickets) != 1 || tickets[0].ID != "T1" || !tickets[0].Resolved {
		t.Fatalf("unexpected tickets: %+v", tickets)
	}
}

func TestParseTicketsUnresolvedResolutionDropped(t *testing.T) {
	// an export bug can leave resolution text on unresolved rows
	content := []byte("id,issue,resolved,resolution\nT1,broken,false,stale text\n")
	tickets, err := ParseTickets(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tickets[0].Resolution != "" {
		t.Fatalf("resolution must be dropped on unresolved rows, got %q", tickets[0].Resolution)
	}
	if err := tickets[0].Validate(); err != nil {
		t.Fatalf("parsed ticket must validate: %v", err)
	}
}

func TestParseTicketsMissingHeader(t *testing.T) {
	if _, err := ParseTickets([]byte("issue,resolved\nbroken,true\n")); err == nil {
		t.Fatalf("expected error for header without id column")
	}
	if _, err := ParseTickets([]byte("")); err == nil {
		t.Fatalf("expected error for empty content")
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "True", "1", "yes", "Y"} {
		if !ParseBool(s) {
			t.Errorf("%q must parse as true", s)
		}
	}
	for _, s := range []string{"false", "0", "no", "", "maybe"} {
		if ParseBool(s) {
			t.Errorf("%q must parse as false", s)
		}
	}
}
