// Package event defines the canonical telemetry event shapes and the
// normalization from raw, partially-filled wire payloads into them.
//
// Parsing untyped wire data and computing the canonical event are two
// separate stages: raw types carry optional fields as pointers, and the
// Normalize functions resolve defaults and assign the server timestamp.
package event
