// Package websocket pushes presentation and analysis updates to the browser
// tabs of a session.
package websocket
