package ledger

import (
	"strings"
	"time"
)

// =============================================================================
// TIMESTAMPS - Instants the ledger is ordered by
// =============================================================================

// Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseTimestamp parses an event timestamp. The second return value is false
// when the timestamp is missing or unparseable; such events are ordered as
// indeterminate (earliest) by the engine.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
