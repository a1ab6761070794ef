package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/magicfill/magicfill/internal/ai"
	"github.com/magicfill/magicfill/internal/forms"
	"github.com/magicfill/magicfill/internal/profile"
	"github.com/magicfill/magicfill/internal/util"
)

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Suggester proposes answers for unrecognized fields via a content generator.
type Suggester struct {
	generator     contentGenerator
	minConfidence float64
	logger        *zap.Logger
	maxLogLen     int
}

// NewSuggester creates a Suggester. Suggestions scoring below minConfidence
// are dropped; zero disables the threshold.
func NewSuggester(generator contentGenerator, logger *zap.Logger, minConfidence float64, maxLogLength int) *Suggester {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Suggester{
		generator:     generator,
		minConfidence: minConfidence,
		logger:        logger,
		maxLogLen:     maxLogLength,
	}
}

// promptField is the trimmed field view sent to the model. Values and input
// types stay local; the model only needs to know what is being asked.
type promptField struct {
	Selector string `json:"selector"`
	Context  string `json:"context"`
}

// Suggest asks the model for values for the given fields. Suggestions whose
// selector does not belong to the batch are discarded.
func (s *Suggester) Suggest(ctx context.Context, fields []*forms.DetectedField, data *profile.PersonalData) ([]ai.Suggestion, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	if data == nil {
		return nil, fmt.Errorf("profile data is required")
	}

	doc := *data
	doc.FieldMappings = nil

	profileJSON, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile payload: %w", err)
	}

	promptFields := make([]promptField, 0, len(fields))
	known := make(map[string]bool, len(fields))
	for _, field := range fields {
		promptFields = append(promptFields, promptField{
			Selector: field.Selector,
			Context:  field.Context,
		})
		known[field.Selector] = true
	}

	fieldsJSON, err := json.MarshalIndent(promptFields, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal fields payload: %w", err)
	}

	prompt := buildPrompt(string(profileJSON), string(fieldsJSON))

	s.logger.Debug("gemini suggestion request",
		zap.Int("fields", len(fields)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("gemini suggestion response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, s.maxLogLen)),
	)

	suggestions, err := parseSuggestions(raw)
	if err != nil {
		return nil, err
	}

	kept := suggestions[:0]
	for _, sug := range suggestions {
		if !known[sug.Selector] {
			s.logger.Debug("dropping suggestion for unknown selector", zap.String("selector", sug.Selector))
			continue
		}
		if s.minConfidence > 0 && sug.Confidence < s.minConfidence {
			s.logger.Debug("dropping suggestion below confidence threshold",
				zap.String("selector", sug.Selector),
				zap.Float64("confidence", sug.Confidence),
				zap.Float64("threshold", s.minConfidence),
			)
			continue
		}
		kept = append(kept, sug)
	}

	return kept, nil
}

func buildPrompt(profileJSON, fieldsJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Profile:\n{{PROFILE_JSON}}\n\nFields:\n{{FIELDS_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{PROFILE_JSON}}", profileJSON)
	prompt = strings.ReplaceAll(prompt, "{{FIELDS_JSON}}", fieldsJSON)
	return prompt
}

func parseSuggestions(raw string) ([]ai.Suggestion, error) {
	cleaned := extractJSON(raw)

	var entries []map[string]any
	if err := json.Unmarshal([]byte(cleaned), &entries); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	suggestions := make([]ai.Suggestion, 0, len(entries))
	for _, entry := range entries {
		selector := coerceString(entry["selector"])
		value := coerceString(entry["value"])
		if selector == "" || value == "" {
			continue
		}

		confidence := coerceFloat(entry["confidence"])
		if math.IsNaN(confidence) {
			confidence = 0
		}

		suggestions = append(suggestions, ai.Suggestion{
			Selector:   selector,
			Value:      value,
			Reason:     coerceString(entry["reason"]),
			Confidence: confidence,
		})
	}

	return suggestions, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
