package core

import (
	"context"
	"sort"
	"strings"
	"time"
)

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

// observeOperation emits one log line plus a counter and a duration
// histogram for a finished registry call.
func (r *Registry) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if r == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	elapsed := time.Since(startedAt)

	logFields := make(map[string]any, len(fields)+5)
	for key, value := range fields {
		logFields[key] = value
	}
	logFields["service"] = r.config.ServiceName
	logFields["operation"] = operation
	logFields["status"] = status
	logFields["duration_ms"] = elapsed.Milliseconds()

	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	if err != nil {
		logFields["error"] = err.Error()
		tags["error_code"] = errorTextCode(err)
	}

	if r.metricsRecorder != nil {
		r.metricsRecorder.IncCounter(ctx, "ownership."+operation+".total", 1, tags)
		r.metricsRecorder.ObserveHistogram(ctx, "ownership."+operation+".duration_ms", float64(elapsed.Milliseconds()), tags)
	}

	if err != nil {
		r.log(ctx, "error", operation+" failed", logFields)
		return
	}
	r.log(ctx, "info", operation+" succeeded", logFields)
}

func (r *Registry) log(ctx context.Context, level string, message string, fields map[string]any) {
	if r == nil || r.logger == nil {
		return
	}
	logger := r.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	args := flattenFields(fields)
	switch level {
	case "error":
		logger.Error(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func errorTextCode(err error) string {
	mapped := MapError(err)
	if mapped == nil || strings.TrimSpace(mapped.TextCode) == "" {
		return ErrorInternal
	}
	return mapped.TextCode
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}
