package core

// EventKind is a notification the core emits to sessions.
type EventKind int

const (
	// EventAuthResult confirms that the session's identity was attached.
	EventAuthResult EventKind = iota
	// EventGridSnapshot delivers a full copy of the canvas to one session.
	EventGridSnapshot
	// EventPixelUpdate notifies every session about an accepted placement.
	EventPixelUpdate
	// EventPixelPlaced privately acknowledges the submitter's placement and
	// carries the time its cooldown ends.
	EventPixelPlaced
	// EventError notifies the submitting session about a rejection.
	EventError
)

// Event is sent to sessions to describe what happened in the system.
type Event struct {
	Kind EventKind

	// Grid is set for EventGridSnapshot.
	Grid [][]string

	// Placement fields for EventPixelUpdate.
	X     int
	Y     int
	Color string

	// CooldownEnds is epoch milliseconds, set for EventPixelPlaced.
	CooldownEnds int64

	Error *CoreError
}
