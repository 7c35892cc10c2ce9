package schema

// SessionEventType identifies a session lifecycle event.
type SessionEventType string

const (
	// SessionStarted is published when a session enters its run loop.
	SessionStarted SessionEventType = "started"
	// SessionResized is published when a size change is pushed to the
	// process and the grid.
	SessionResized SessionEventType = "resized"
	// SessionStopped is published when the run loop has fully stopped.
	SessionStopped SessionEventType = "stopped"
)

// SessionEvent describes a session lifecycle change.
type SessionEvent struct {
	Type      SessionEventType
	SessionID SessionID
	SurfaceID SurfaceID
	// Rows and Cols carry the new size for SessionResized events.
	Rows int
	Cols int
}
