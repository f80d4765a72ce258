package services

import "context"

type contextKey string

const (
	jobContextKey       contextKey = "slate.job"
	requestIDContextKey contextKey = "slate.request_id"
)

// WithJob attaches a job name to the context for structured logging.
func WithJob(ctx context.Context, job string) context.Context {
	return context.WithValue(ctx, jobContextKey, job)
}

// JobFromContext extracts the job name, if any.
func JobFromContext(ctx context.Context) (string, bool) {
	job, ok := ctx.Value(jobContextKey).(string)
	return job, ok && job != ""
}

// WithRequestID attaches a correlation id used by tracker requests.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestIDFromContext extracts the correlation id, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey).(string)
	return id, ok && id != ""
}
