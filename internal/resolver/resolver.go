// Package resolver decides which stored answer, if any, belongs in a detected
// form field. Resolution is a pure function of the field and a PersonalData
// snapshot; it performs no I/O and holds no state between calls.
package resolver

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/magicfill/magicfill/internal/forms"
	"github.com/magicfill/magicfill/internal/keygen"
	"github.com/magicfill/magicfill/internal/patterns"
	"github.com/magicfill/magicfill/internal/profile"
)

// Source labels which step of the cascade produced a resolution.
type Source string

const (
	SourceFieldMapping Source = "field_mapping"
	SourceSiteAnswer   Source = "site_answer"
	SourceCustomAnswer Source = "custom_answer"
	SourceFuzzyAnswer  Source = "fuzzy_answer"
	SourceStandard     Source = "standard"
)

// Resolution is a resolved answer for one field.
type Resolution struct {
	Value  profile.Value
	Source Source
	// Key is the mapping name, answer key, or semantic type that matched.
	Key string
}

// Options tune optional cascade behavior.
type Options struct {
	// UseSiteAnswers inserts a site-scoped answer lookup ahead of the global
	// custom-answer steps. Off by default: the stock cascade never consults
	// siteSpecificAnswers, and turning this on is a behavior extension.
	UseSiteAnswers bool
}

// Resolver runs the resolution cascade.
type Resolver struct {
	opts   Options
	logger *zap.Logger
}

// New creates a Resolver. A nil logger disables trace logging.
func New(opts Options, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{opts: opts, logger: logger}
}

// Resolve walks the cascade in fixed order and returns the first source that
// yields a value, or nil when the field is unrecognized. Data-shape problems
// (missing maps, absent attributes) degrade to nil; only nil arguments panic,
// as a caller contract violation.
//
// Order: field mappings, site answers (opt-in), custom answers by exact key,
// custom answers by fuzzy context match (unknown fields only), standard
// attribute by semantic type.
func (r *Resolver) Resolve(field *forms.DetectedField, data *profile.PersonalData, hostname string) *Resolution {
	semanticType := field.SemanticType
	if semanticType == "" {
		semanticType = patterns.TypeUnknown
	}

	if res := r.fromFieldMappings(field, data); res != nil {
		return res
	}

	if r.opts.UseSiteAnswers && hostname != "" {
		if res := r.fromAnswers(semanticType, field.Context, data.SiteAnswers(hostname), SourceSiteAnswer); res != nil {
			return res
		}
	}

	if res := r.fromAnswers(semanticType, field.Context, data.CustomAnswers, SourceCustomAnswer); res != nil {
		return res
	}

	if value, standard, resolved := data.StandardValue(semanticType); standard && resolved {
		return &Resolution{Value: value, Source: SourceStandard, Key: semanticType}
	}

	return nil
}

// fromFieldMappings scans explicit override rules. Mapping names are visited
// in sorted order for determinism; any pattern occurring in the context as a
// case-insensitive substring selects the rule.
func (r *Resolver) fromFieldMappings(field *forms.DetectedField, data *profile.PersonalData) *Resolution {
	if len(data.FieldMappings) == 0 {
		return nil
	}

	context := strings.ToLower(field.Context)
	for _, name := range sortedKeys(data.FieldMappings) {
		mapping := data.FieldMappings[name]
		for _, pattern := range mapping.Patterns {
			if pattern == "" || !strings.Contains(context, strings.ToLower(pattern)) {
				continue
			}
			r.logger.Debug("field mapping matched",
				zap.String("selector", field.Selector),
				zap.String("mapping", name),
				zap.String("pattern", pattern),
			)
			return &Resolution{Value: profile.String(mapping.Value), Source: SourceFieldMapping, Key: name}
		}
	}

	return nil
}

// fromAnswers looks up a learned-answer map, first by exact key, then by
// fuzzy context match for unknown fields. Used for both global and
// site-scoped answers.
func (r *Resolver) fromAnswers(semanticType, context string, answers map[string]string, source Source) *Resolution {
	if len(answers) == 0 {
		return nil
	}

	// The semantic type itself may have been learned as a key, including
	// non-standard types. Empty stored answers do not count as a match here.
	if value, ok := answers[semanticType]; ok && value != "" {
		return &Resolution{Value: profile.String(value), Source: source, Key: semanticType}
	}

	if semanticType != patterns.TypeUnknown {
		return nil
	}

	key, ok := matchKey(context, answers)
	if !ok {
		return nil
	}

	r.logger.Debug("fuzzy answer matched",
		zap.String("key", key),
		zap.String("context", context),
	)

	fuzzySource := SourceFuzzyAnswer
	if source == SourceSiteAnswer {
		fuzzySource = SourceSiteAnswer
	}
	return &Resolution{Value: profile.String(answers[key]), Source: fuzzySource, Key: key}
}

// matchKey finds the answer key matching a field context. Exact normalized
// equality wins immediately; otherwise keys are accepted when at least half
// of their words (rounded up, minimum one) have a containment relationship
// with a context word. Keys are visited in sorted order and the first hit
// wins; there is no global best-match search.
func matchKey(context string, answers map[string]string) (string, bool) {
	keys := sortedKeys(answers)

	normalizedContext := keygen.Normalize(context)
	for _, key := range keys {
		if keygen.Normalize(key) == normalizedContext {
			return key, true
		}
	}

	contextWords := keygen.ContextWords(context)
	for _, key := range keys {
		keyWords := keygen.KeyWords(key)
		if len(keyWords) == 0 {
			continue
		}

		matched := 0
		for _, kw := range keyWords {
			for _, cw := range contextWords {
				if strings.Contains(cw, kw) || strings.Contains(kw, cw) {
					matched++
					break
				}
			}
		}

		threshold := int(math.Max(1, math.Ceil(float64(len(keyWords))*0.5)))
		if matched >= threshold {
			return key, true
		}
	}

	return "", false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
