// Package ai defines the contract for model-backed answer suggestions.
// Suggesters only ever see fields the resolver could not answer; they never
// override the deterministic cascade.
package ai

import (
	"context"

	"github.com/magicfill/magicfill/internal/forms"
	"github.com/magicfill/magicfill/internal/profile"
)

// Suggestion is a proposed value for one unrecognized field. Suggestions are
// advisory: the user reviews them before anything is applied or learned.
type Suggestion struct {
	Selector   string
	Value      string
	Reason     string
	Confidence float64
}

// Suggester proposes values for unrecognized fields based on the profile.
type Suggester interface {
	Suggest(ctx context.Context, fields []*forms.DetectedField, data *profile.PersonalData) ([]Suggestion, error)
}
