// Package logging assembles the structured slog loggers used across rcjk.
//
// It owns the console and JSON handlers, level and output plumbing, the
// standard field keys, and context-aware helpers that tag log lines with the
// export run, project, and font being processed. NewNop provides a discarding
// logger for tests and wiring code that cannot fail.
package logging
