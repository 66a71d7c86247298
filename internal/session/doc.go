// Package session keeps per-browser state in memory: the trained model of
// the last upload and the presentation viewer position.
package session
