package ai

import (
	"context"
	"errors"
	"testing"
)

type fakeCompleter struct {
	response      string
	err           error
	lastUser      string
	lastMaxTokens int
}

func (f *fakeCompleter) Complete(_ context.Context, _, user string, maxTokens int) (string, error) {
	f.lastUser = user
	f.lastMaxTokens = maxTokens
	return f.response, f.err
}

func TestParseQuery(t *testing.T) {
	completer := &fakeCompleter{response: `{
		"item": "iPhone 14 Pro",
		"brand": "Apple",
		"model": "14 Pro",
		"condition": "usato",
		"price_max": 600,
		"keywords": ["iPhone", "14", "Pro"]
	}`}
	p := NewParser(completer)

	q, err := p.ParseQuery(context.Background(), "iPhone 14 Pro usato sotto 600€")
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}

	if q.Item != "iPhone 14 Pro" {
		t.Errorf("Item = %q", q.Item)
	}
	if q.Condition != "used" {
		t.Errorf("Condition = %q, want normalized %q", q.Condition, "used")
	}
	if q.PriceMax == nil || *q.PriceMax != 600 {
		t.Errorf("PriceMax = %v, want 600", q.PriceMax)
	}
	if len(q.Keywords) != 3 {
		t.Errorf("Keywords = %v", q.Keywords)
	}
}

func TestParseQueryStripsCodeFence(t *testing.T) {
	completer := &fakeCompleter{response: "```json\n{\"item\": \"mountain bike\"}\n```"}
	p := NewParser(completer)

	q, err := p.ParseQuery(context.Background(), "mountain bike")
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if q.Item != "mountain bike" {
		t.Errorf("Item = %q", q.Item)
	}
}

func TestParseQueryDegradesOnGarbage(t *testing.T) {
	completer := &fakeCompleter{response: "I could not parse that, sorry!"}
	p := NewParser(completer)

	q, err := p.ParseQuery(context.Background(), "vintage synth")
	if err != nil {
		t.Fatalf("ParseQuery should degrade, not fail: %v", err)
	}
	if q.Item != "vintage synth" {
		t.Errorf("degraded Item = %q, want raw query text", q.Item)
	}
	if len(q.Keywords) != 1 || q.Keywords[0] != "vintage synth" {
		t.Errorf("degraded Keywords = %v", q.Keywords)
	}
}

func TestParseQueryPropagatesTransportError(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("timeout")}
	p := NewParser(completer)

	if _, err := p.ParseQuery(context.Background(), "anything"); err == nil {
		t.Fatal("expected error when completion fails")
	}
}
