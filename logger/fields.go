package logger

import (
	"time"
)

// Standard field keys for structured logging.
const (
	FieldComponent   = "component"
	FieldTraceID     = "trace_id"
	FieldSpanID      = "span_id"
	FieldRunID       = "run_id"
	FieldPipeline    = "pipeline"
	FieldStep        = "step"
	FieldArtifact    = "artifact"
	FieldLocation    = "location"
	FieldServiceUUID = "service_uuid"
	FieldOperation   = "operation"
	FieldStatus      = "status"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
)

// Fields builds a map from alternating key-value pairs.
//
//	logger.Info("step finished", logger.Fields("step", "model_trainer", "rows", 4200))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// StepFields identifies one step of one pipeline run.
func StepFields(pipeline, runID, step string) map[string]interface{} {
	return map[string]interface{}{
		FieldPipeline: pipeline,
		FieldRunID:    runID,
		FieldStep:     step,
	}
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// MergeWithDuration adds a duration field to an existing map.
func MergeWithDuration(fields map[string]interface{}, d time.Duration) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldDuration] = d.Milliseconds()
	return fields
}
