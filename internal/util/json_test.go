package util

import (
	"encoding/json"
	"testing"
)

func TestConvertStructToJson_RoundTrip(t *testing.T) {
	type payload struct {
		Source string `json:"source"`
		Key    string `json:"key"`
	}

	out := ConvertStructToJson(payload{Source: "s3", Key: "corpus.csv"})

	var got payload
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("expected valid JSON, got %q: %v", out, err)
	}
	if got.Source != "s3" || got.Key != "corpus.csv" {
		t.Fatalf("expected fields to survive, got %+v", got)
	}
}

func TestConvertStructToJson_MarshalFailure(t *testing.T) {
	out := ConvertStructToJson(make(chan int))
	if out != "{}" {
		t.Fatalf("expected empty object on marshal failure, got %q", out)
	}
}
