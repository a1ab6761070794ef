package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured log field keys shared across components.
const (
	// FieldHostname is the site a fill or learning operation targets.
	FieldHostname = "hostname"
	// FieldProvider is the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the AI model identifier.
	FieldModel = "ai_model"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger. A nil logger
// defaults to a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// WithAI attaches the AI provider and model fields to the logger. Empty values
// are ignored to keep log entries compact when information is missing.
func WithAI(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)...)
}

// WithHostname attaches the target hostname to the logger when present.
func WithHostname(logger *zap.Logger, hostname string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldHostname, Value: hostname},
	)...)
}
