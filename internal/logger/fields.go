package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
	// FieldCapability names the kind of model call.
	FieldCapability = "capability"
	// FieldLeadID identifies the job lead a log line is about.
	FieldLeadID = "lead_id"
	// FieldCompany is the company of the lead.
	FieldCompany = "company"
)

// nonEmpty returns zap string fields for the given key/value pairs, skipping
// pairs whose trimmed value is empty.
func nonEmpty(pairs ...string) []zap.Field {
	fields := make([]zap.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		value := strings.TrimSpace(pairs[i+1])
		if value == "" {
			continue
		}
		fields = append(fields, zap.String(pairs[i], value))
	}
	return fields
}

// WithFields attaches fields to logger. A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// WithModelCall tags logger for one model call. Empty values are left out.
func WithModelCall(logger *zap.Logger, provider, model, capability string) *zap.Logger {
	return WithFields(logger, nonEmpty(
		FieldProvider, provider,
		FieldModel, model,
		FieldCapability, capability,
	)...)
}

// WithLead tags logger with the lead id and company.
func WithLead(logger *zap.Logger, id, company string) *zap.Logger {
	return WithFields(logger, nonEmpty(
		FieldLeadID, id,
		FieldCompany, company,
	)...)
}
