// Package logging configures the process-wide structured logger. Components
// derive their own loggers with slog's With, tagging each record with a
// component attribute.
package logging
