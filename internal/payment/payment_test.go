package payment

import (
	"context"
	"testing"
)

func TestProcessIssuesToken(t *testing.T) {
	p := NewSimulatedProcessor()

	first, err := p.Process(context.Background(), 42.5)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if first.Token == "" {
		t.Fatal("expected a transaction token")
	}

	second, err := p.Process(context.Background(), 10)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if second.Token == first.Token {
		t.Fatal("expected unique tokens per payment")
	}
}

func TestProcessRejectsNegativeAmount(t *testing.T) {
	p := NewSimulatedProcessor()

	if _, err := p.Process(context.Background(), -1); err == nil {
		t.Fatal("expected error for negative amount")
	}
}
