// Package app assembles the dashboard: configuration, telemetry, the session
// store, services, handlers and the HTTP server, and runs them until the
// process is told to stop.
package app
