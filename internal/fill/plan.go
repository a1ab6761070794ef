package fill

import (
	"context"

	"github.com/magicfill/magicfill/internal/forms"
	"github.com/magicfill/magicfill/internal/profile"
)

// PlanEntry is one planned write: which control gets which value and where
// the value came from.
type PlanEntry struct {
	Selector string        `json:"selector"`
	Context  string        `json:"context,omitempty"`
	Value    profile.Value `json:"value"`
	Source   string        `json:"source"`
	Key      string        `json:"key,omitempty"`
}

// UploadNote points the caller at a file control it must handle itself.
type UploadNote struct {
	Selector string `json:"selector"`
	Label    string `json:"label"`
}

// Plan is the serializable outcome of a fill pass, handed to whatever applies
// values to the page.
type Plan struct {
	Filled       int          `json:"filled"`
	Total        int          `json:"total"`
	Entries      []PlanEntry  `json:"entries"`
	Unrecognized []string     `json:"unrecognized"`
	FileUploads  []UploadNote `json:"fileUploads"`
}

// NewPlan flattens a Result into its wire form. Slices are always non-nil so
// the JSON shape stays stable.
func NewPlan(result *Result) *Plan {
	plan := &Plan{
		Filled:       result.Filled,
		Total:        result.Total,
		Entries:      []PlanEntry{},
		Unrecognized: []string{},
		FileUploads:  []UploadNote{},
	}

	for _, outcome := range result.Applied {
		plan.Entries = append(plan.Entries, PlanEntry{
			Selector: outcome.Field.Selector,
			Context:  outcome.Field.Context,
			Value:    outcome.Resolution.Value,
			Source:   string(outcome.Resolution.Source),
			Key:      outcome.Resolution.Key,
		})
	}
	for _, field := range result.Unrecognized {
		plan.Unrecognized = append(plan.Unrecognized, field.Selector)
	}
	for _, field := range result.FileUploads {
		plan.FileUploads = append(plan.FileUploads, UploadNote{
			Selector: field.Selector,
			Label:    field.UploadLabel(),
		})
	}

	return plan
}

// CollectPlan is an Applier that accepts every value. Use it when the caller
// only wants the plan, with nothing to write into.
var CollectPlan = ApplierFunc(func(_ context.Context, _ *forms.DetectedField, _ profile.Value) (bool, error) {
	return true, nil
})
