package ai

import "testing"

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestUnmarshalFlexible_StandardJSON(t *testing.T) {
	var out sample
	if err := UnmarshalFlexible(`{"name": "vpn", "count": 3}`, &out); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out.Name != "vpn" || out.Count != 3 {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestUnmarshalFlexible_DoubleEncoded(t *testing.T) {
	var out sample
	if err := UnmarshalFlexible(`"{\"name\": \"vpn\", \"count\": 3}"`, &out); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out.Name != "vpn" || out.Count != 3 {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestUnmarshalFlexible_Malformed(t *testing.T) {
	var out sample
	if err := UnmarshalFlexible(`{name: "vpn", count: 3}`, &out); err != nil {
		t.Fatalf("expected repaired unmarshal, got %v", err)
	}
	if out.Name != "vpn" || out.Count != 3 {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestGenerateSchema_DoesNotPanicOnPointer(t *testing.T) {
	if s := GenerateSchema(&sample{}); s == nil {
		t.Fatal("expected schema, got nil")
	}
}
