// Package fill drives resolution across a batch of detected fields and
// classifies the outcomes. Application of values to the page stays behind the
// Applier interface; the orchestrator never touches a DOM.
package fill

import (
	"context"

	"go.uber.org/zap"

	"github.com/magicfill/magicfill/internal/forms"
	"github.com/magicfill/magicfill/internal/profile"
	"github.com/magicfill/magicfill/internal/resolver"
)

// Applier writes a resolved value into a form control. Apply reports false
// when the write could not happen (disabled element, detached node, control
// type mismatch); such fields had an answer and must not be treated as
// unrecognized. An error aborts nothing: it is recorded and the batch
// continues.
type Applier interface {
	Apply(ctx context.Context, field *forms.DetectedField, value profile.Value) (bool, error)
}

// ApplierFunc adapts a function to the Applier interface.
type ApplierFunc func(ctx context.Context, field *forms.DetectedField, value profile.Value) (bool, error)

func (f ApplierFunc) Apply(ctx context.Context, field *forms.DetectedField, value profile.Value) (bool, error) {
	return f(ctx, field, value)
}

// Outcome pairs a field with the resolution that was attempted on it.
type Outcome struct {
	Field      *forms.DetectedField
	Resolution *resolver.Resolution
}

// Result aggregates one fill pass.
type Result struct {
	// Filled counts fields whose value was applied successfully.
	Filled int
	// Total counts every field in the batch, file uploads included.
	Total int
	// Unrecognized lists fields the cascade produced no usable value for;
	// this is the handoff to learning and manual review.
	Unrecognized []*forms.DetectedField
	// FileUploads lists file controls, which are never resolved.
	FileUploads []*forms.DetectedField
	// NotApplied lists fields that resolved but could not be written. They
	// are deliberately kept out of both Filled and Unrecognized.
	NotApplied []Outcome
	// Applied records what went where, for fill plans and reporting.
	Applied []Outcome
}

// Orchestrator runs resolve+apply over scan batches.
type Orchestrator struct {
	resolver *resolver.Resolver
	logger   *zap.Logger
}

// New creates an Orchestrator. A nil logger disables reporting.
func New(r *resolver.Resolver, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{resolver: r, logger: logger}
}

// Run processes fields in input order, one at a time. File uploads are routed
// to their own bucket before resolution; resolutions that come back nil or as
// an empty string are classified unrecognized; apply failures go to
// NotApplied without retry. Resolution is pure and apply overwrites, so
// re-running the same batch is safe and yields the same classification.
func (o *Orchestrator) Run(ctx context.Context, fields []*forms.DetectedField, data *profile.PersonalData, hostname string, apply Applier) (*Result, error) {
	result := &Result{Total: len(fields)}

	for _, field := range fields {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if field.IsFileUpload() {
			result.FileUploads = append(result.FileUploads, field)
			continue
		}

		res := o.resolver.Resolve(field, data, hostname)
		if res == nil || res.Value.IsEmpty() {
			result.Unrecognized = append(result.Unrecognized, field)
			continue
		}

		ok, err := apply.Apply(ctx, field, res.Value)
		if err != nil {
			o.logger.Warn("applying value failed",
				zap.String("selector", field.Selector),
				zap.String("source", string(res.Source)),
				zap.Error(err),
			)
		}
		if !ok || err != nil {
			result.NotApplied = append(result.NotApplied, Outcome{Field: field, Resolution: res})
			continue
		}

		result.Filled++
		result.Applied = append(result.Applied, Outcome{Field: field, Resolution: res})
	}

	o.logger.Info("fill pass finished",
		zap.Int("total", result.Total),
		zap.Int("filled", result.Filled),
		zap.Int("unrecognized", len(result.Unrecognized)),
		zap.Int("file_uploads", len(result.FileUploads)),
		zap.Int("not_applied", len(result.NotApplied)),
	)

	return result, nil
}
