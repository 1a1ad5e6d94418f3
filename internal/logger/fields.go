package logger

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	FieldApp         = "app"
	FieldFormID      = "form_id"
	FieldJobID       = "job_id"
	FieldFormVersion = "form_version"
	FieldRunID       = "run_id"
	FieldQuestionID  = "question_id"
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

// WithFields safely attaches the provided fields to the logger.
// A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// FormFields identifies a screening form snapshot. A zero version is omitted.
func FormFields(formID, jobID string, version int) []zap.Field {
	v := ""
	if version > 0 {
		v = strconv.Itoa(version)
	}
	return StringFields(
		StringField{Key: FieldFormID, Value: formID},
		StringField{Key: FieldJobID, Value: jobID},
		StringField{Key: FieldFormVersion, Value: v},
	)
}

// WithForm attaches FormFields to the logger.
func WithForm(logger *zap.Logger, formID, jobID string, version int) *zap.Logger {
	return WithFields(logger, FormFields(formID, jobID, version)...)
}
