// Package logging builds the slog loggers used across slate.
//
// Loggers are constructed once (usually by the CLI) and handed down to the
// template engine, path model, caches and service clients as component
// loggers. Field keys are standardized here so that job/entity/task context
// is queryable in structured output.
package logging
