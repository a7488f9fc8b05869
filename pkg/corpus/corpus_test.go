package corpus

import "testing"

func TestParseDispatch(t *testing.T) {
	csvContent := []byte("id,issue,resolved\nT1,broken,true\n")
	tickets, err := Parse("corpus.csv", csvContent)
	if err != nil {
		t.Fatalf("csv dispatch: %v", err)
	}
	if len(tickets) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(tickets))
	}

	jsonContent := []byte(`[{"id": "T1", "issue": "broken", "resolved": true, "resolution": "fix"}]`)
	tickets, err = Parse("corpus.json", jsonContent)
	if err != nil {
		t.Fatalf("json dispatch: %v", err)
	}
	if len(tickets) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(tickets))
	}

	if _, err := Parse("corpus.pdf", nil); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}
