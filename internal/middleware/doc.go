// Package middleware provides the HTTP middleware chain: request ids,
// structured request logging, panic recovery, rate limiting, timeouts,
// security headers, telemetry and request validation.
package middleware
