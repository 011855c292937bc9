package event

import (
	"github.com/jonboulle/clockwork"
)

// SensorReading is one force-sensor sample as broadcast to dashboards.
type SensorReading struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// CVUpdate is one pose-estimation update as broadcast to dashboards.
type CVUpdate struct {
	Reps         int     `json:"reps"`
	FormAccuracy float64 `json:"formAccuracy"`
	Timestamp    int64   `json:"timestamp"`
}

// RawSensorReading is the wire shape of a sensor ingestion body.
// The ESP32 firmware has sent both field names over time, so both are
// accepted; Value wins when both are present.
type RawSensorReading struct {
	Value  *float64 `json:"value"`
	Sensor *float64 `json:"sensor"`
}

// RawCVUpdate is the wire shape of a CV ingestion body or WebSocket
// message. Timestamp is only honored on the WebSocket path.
type RawCVUpdate struct {
	Reps         *int     `json:"reps"`
	FormAccuracy *float64 `json:"formAccuracy"`
	Timestamp    *int64   `json:"timestamp"`
}

// NormalizeSensor resolves a raw sensor body into a canonical reading.
// Missing fields default to 0; the timestamp is always server-assigned.
// Values are not range-checked.
func NormalizeSensor(raw RawSensorReading, clock clockwork.Clock) SensorReading {
	value := 0.0
	switch {
	case raw.Value != nil:
		value = *raw.Value
	case raw.Sensor != nil:
		value = *raw.Sensor
	}

	return SensorReading{
		Timestamp: clock.Now().UnixMilli(),
		Value:     value,
	}
}

// NormalizeCV resolves a raw CV body from the HTTP path. Any
// caller-provided timestamp is ignored.
func NormalizeCV(raw RawCVUpdate, clock clockwork.Clock) CVUpdate {
	ev := normalizeCVFields(raw)
	ev.Timestamp = clock.Now().UnixMilli()
	return ev
}

// NormalizeCVMessage resolves a raw CV payload pushed over the
// WebSocket. Unlike the HTTP path, an explicit timestamp is honored;
// otherwise the server receipt time is substituted.
func NormalizeCVMessage(raw RawCVUpdate, clock clockwork.Clock) CVUpdate {
	ev := normalizeCVFields(raw)
	if raw.Timestamp != nil {
		ev.Timestamp = *raw.Timestamp
	} else {
		ev.Timestamp = clock.Now().UnixMilli()
	}
	return ev
}

func normalizeCVFields(raw RawCVUpdate) CVUpdate {
	var ev CVUpdate
	if raw.Reps != nil {
		ev.Reps = *raw.Reps
	}
	if raw.FormAccuracy != nil {
		ev.FormAccuracy = *raw.FormAccuracy
	}
	return ev
}
