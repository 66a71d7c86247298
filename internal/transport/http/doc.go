// Package http holds the HTTP handlers of the dashboard: the server-rendered
// analysis and presentation pages, their JSON API counterparts, health
// endpoints and the session-scoped WebSocket endpoint.
//
// Every handler resolves the caller's session through SessionMiddleware and
// reports failures through the RFC 7807 error handler, or as an inline alert
// on HTML pages.
package http
