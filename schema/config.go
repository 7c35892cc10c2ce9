package schema

// SessionConfig holds the per-session settings read once when a session
// is constructed. Sessions never observe later changes.
type SessionConfig struct {
	// ShowColors enables the per-row color map and styled regions.
	ShowColors bool
	// RightMargin is subtracted from the surface width in columns.
	RightMargin int
	// BottomMargin is subtracted from the surface height in rows.
	BottomMargin int
	// ScrollHistory is the scrollback depth offered to the grid.
	ScrollHistory int
	// ScrollRatio is the fraction of a screen a page scroll moves.
	ScrollRatio float64
}

// DefaultSessionConfig returns the stock session settings.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		ShowColors:    true,
		RightMargin:   3,
		BottomMargin:  0,
		ScrollHistory: 1000,
		ScrollRatio:   0.5,
	}
}

// IsZero reports whether the config is entirely unset, in which case
// callers substitute DefaultSessionConfig.
func (c SessionConfig) IsZero() bool {
	return c == SessionConfig{}
}
