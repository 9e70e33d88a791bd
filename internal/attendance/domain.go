package attendance

import "time"

// EventType is the kind of attendance event.
type EventType string

// Attendance event kinds.
const (
	CheckIn  EventType = "CHECK_IN"
	CheckOut EventType = "CHECK_OUT"
)

// Valid reports whether the type is one of the two known kinds.
func (t EventType) Valid() bool {
	return t == CheckIn || t == CheckOut
}

// Event is one committed attendance record. Events are append-only: once
// committed they are never mutated or deleted. RecordedAt is assigned by the
// database, never by the client.
type Event struct {
	ID         int64     `json:"id"`
	IdentityID int64     `json:"-"`
	EmployeeID string    `json:"employeeId"`
	Type       EventType `json:"type"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}
