// Package logx wraps zerolog behind a small Logger with explicit Field
// helpers and a Service that can re-point sinks (console, file, operator
// Telegram chat) at runtime without invalidating existing loggers.
package logx
