package schema

// SessionID identifies a terminal session.
type SessionID string

// SurfaceID identifies a display surface hosting a session.
type SurfaceID string

// Modifiers carries the modifier flags attached to a keypress.
type Modifiers struct {
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool
}

// ScrollUnit selects how far a scroll request moves the viewport.
type ScrollUnit string

const (
	// ScrollLine moves the scrollback viewport by one line.
	ScrollLine ScrollUnit = "line"
	// ScrollPage moves the scrollback viewport by one page.
	ScrollPage ScrollUnit = "page"
)

// ScrollDirection selects which way a scroll request moves the viewport.
type ScrollDirection string

const (
	// ScrollUp moves the viewport toward older output.
	ScrollUp ScrollDirection = "up"
	// ScrollDown moves the viewport toward newer output.
	ScrollDown ScrollDirection = "down"
)

// ScrollRequest is a pending scrollback navigation request. At most one
// request is pending per session; the last writer wins.
type ScrollRequest struct {
	Unit      ScrollUnit
	Direction ScrollDirection
}
