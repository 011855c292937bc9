// Package gateway implements the WebSocket broadcast gateway using the actor pattern.
//
// A single goroutine owns the connection registry and processes commands
// from a channel (no mutexes), so registration, disconnects, and fan-out
// never race. Per-connection write goroutines isolate slow clients:
// delivery is at-most-effort, and a subscriber whose send buffer is full
// is evicted without affecting the rest of the broadcast.
package gateway
