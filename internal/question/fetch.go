package question

import (
	"context"
	"errors"
	"fmt"
)

// Fetch limits.
const (
	DefaultFetchAmount = 10
	MaxFetchAmount     = 50
)

// ErrUpstream marks a failure of an outside trivia service.
var ErrUpstream = errors.New("trivia provider failed")

// FetchRequest narrows a provider fetch. Empty filters mean any.
type FetchRequest struct {
	Amount     int    `json:"amount"`
	Difficulty string `json:"difficulty,omitempty"`
	Category   string `json:"category,omitempty"`
}

// Provider fetches ready-to-import questions from an outside trivia service.
// Entries a provider cannot turn into valid questions are dropped by the
// provider, so the returned inputs pass ValidateInput.
type Provider interface {
	Fetch(ctx context.Context, req FetchRequest) ([]Input, error)
}

// Validate applies the default amount and checks the bounds.
func (r *FetchRequest) Validate() error {
	if r.Amount == 0 {
		r.Amount = DefaultFetchAmount
	}
	if r.Amount < 0 || r.Amount > MaxFetchAmount {
		return &ValidationError{Field: "amount", Message: fmt.Sprintf("amount must be between 1 and %d", MaxFetchAmount)}
	}
	switch r.Difficulty {
	case "", "easy", "medium", "hard":
	default:
		return &ValidationError{Field: "difficulty", Message: "difficulty must be easy, medium or hard"}
	}
	return nil
}
