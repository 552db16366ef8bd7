package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Receipt is the outcome of a processed payment.
type Receipt struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

// Processor defines the payment contract.
type Processor interface {
	Process(ctx context.Context, amount float64) (*Receipt, error)
}

// SimulatedProcessor issues opaque receipt tokens without contacting a real
// gateway. The token fills the role of an on-chain transaction hash.
type SimulatedProcessor struct{}

// NewSimulatedProcessor returns the stub processor.
func NewSimulatedProcessor() *SimulatedProcessor {
	return &SimulatedProcessor{}
}

// Process accepts any non-negative amount and returns a success receipt.
func (p *SimulatedProcessor) Process(ctx context.Context, amount float64) (*Receipt, error) {
	if amount < 0 {
		return nil, errors.New("payment: negative amount")
	}
	return &Receipt{
		Status: "success",
		Token:  uuid.NewString(),
	}, nil
}
