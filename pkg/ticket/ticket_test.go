package ticket

import "testing"

func TestText_CombinesNonEmptyFields(t *testing.T) {
	tk := Ticket{
		Issue:       "Printer not connecting to WiFi",
		Category:    "Hardware",
		Description: "WiFi printer is not connecting to any devices in the office.",
	}
	want := "Printer not connecting to WiFi Hardware WiFi printer is not connecting to any devices in the office."
	if got := tk.Text(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestText_SkipsEmptyFields(t *testing.T) {
	tk := Ticket{Issue: "VPN down", Category: "", Description: "  "}
	if got := tk.Text(); got != "VPN down" {
		t.Fatalf("expected %q, got %q", "VPN down", got)
	}
}

func TestText_NewTicketMatchesTicket(t *testing.T) {
	tk := Ticket{Issue: "a", Category: "b", Description: "c"}
	nt := NewTicket{Issue: "a", Category: "b", Description: "c"}
	if tk.Text() != nt.Text() {
		t.Fatalf("ticket and new-ticket text differ: %q vs %q", tk.Text(), nt.Text())
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		tk      Ticket
		wantErr bool
	}{
		{"valid resolved", Ticket{ID: "T1", Resolved: true, Resolution: "restart"}, false},
		{"valid unresolved", Ticket{ID: "T2", Resolved: false}, false},
		{"empty id", Ticket{ID: "  "}, true},
		{"unresolved with resolution", Ticket{ID: "T3", Resolved: false, Resolution: "x"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tk.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
		})
	}
}
