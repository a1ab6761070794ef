// Package learning turns user-committed field values into stored answers.
// Keys are derived with the same keygen transform the resolver looks up with,
// which is the invariant that closes the loop between "unrecognized" and
// "known".
package learning

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/magicfill/magicfill/internal/forms"
	"github.com/magicfill/magicfill/internal/keygen"
)

// Scope decides where a learned answer lands: globally or under one hostname.
type Scope struct {
	Site     bool
	Hostname string
}

// Store is the single mutation entry point into the answer library. Upserts
// are last-write-wins; created reports whether the key was new.
type Store interface {
	UpsertAnswer(ctx context.Context, key, value string, scope Scope) (created bool, err error)
}

// Capture persists committed field edits.
type Capture struct {
	store  Store
	logger *zap.Logger
}

// New creates a Capture. A nil logger disables reporting.
func New(store Store, logger *zap.Logger) *Capture {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Capture{store: store, logger: logger}
}

// OnFieldCommitted files a committed value under the key derived from the
// field's context, returning that key. Empty values and contexts that reduce
// to an empty key are skipped silently: there is nothing to learn from them.
func (c *Capture) OnFieldCommitted(ctx context.Context, fieldContext, value string, scope Scope) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}

	key := keygen.ToKey(fieldContext)
	if key == "" {
		return "", nil
	}

	if scope.Site && strings.TrimSpace(scope.Hostname) == "" {
		return "", errors.New("site scope requires a hostname")
	}

	created, err := c.store.UpsertAnswer(ctx, key, value, scope)
	if err != nil {
		return "", err
	}

	c.logger.Info("answer learned",
		zap.String("key", key),
		zap.Bool("created", created),
		zap.Bool("site_specific", scope.Site),
	)

	return key, nil
}

// Report summarizes a bulk capture.
type Report struct {
	Saved   int
	Updated int
	Skipped int
}

// CaptureAll commits the current values of every non-empty, non-file field in
// the batch. Distinct contexts can collide on one key; the later field wins,
// matching single-commit semantics.
func (c *Capture) CaptureAll(ctx context.Context, fields []*forms.DetectedField, scope Scope) (*Report, error) {
	report := &Report{}

	for _, field := range fields {
		if field.IsFileUpload() || strings.TrimSpace(field.Value) == "" {
			report.Skipped++
			continue
		}

		key := keygen.ToKey(field.Context)
		if key == "" {
			report.Skipped++
			continue
		}

		created, err := c.store.UpsertAnswer(ctx, key, field.Value, scope)
		if err != nil {
			return report, err
		}

		if created {
			report.Saved++
		} else {
			report.Updated++
		}
	}

	c.logger.Info("bulk capture finished",
		zap.Int("saved", report.Saved),
		zap.Int("updated", report.Updated),
		zap.Int("skipped", report.Skipped),
	)

	return report, nil
}
