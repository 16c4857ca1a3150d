// Package observability builds the structured logger shared by the CLI and
// the HTTP server.
//
// Loggers are constructed once at startup and injected into every component
// through its constructor. Components never reach for a global logger.
package observability
