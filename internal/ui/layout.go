package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which notes are hidden.
	LayoutCompactWidth = 90
)

// Activity pane limits.
const (
	// ActivityLines is the number of log lines read per refresh.
	ActivityLines = 200

	// ActivityHeight is the pane height in rows, borders excluded.
	ActivityHeight = 8

	// DetailHeight is the item detail pane height in rows, borders excluded.
	DetailHeight = 4
)

// Timing constants.
const (
	// DefaultUIInterval is the default activity refresh interval.
	DefaultUIInterval = time.Second

	// SaveTimeout bounds each item save after a commit.
	SaveTimeout = 5 * time.Second
)
