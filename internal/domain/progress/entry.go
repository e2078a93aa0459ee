// internal/domain/progress/entry.go
package progress

import (
	"time"
)

// Entry is a single observation from the progress log.
type Entry struct {
	Date  time.Time // Calendar date, midnight UTC (see DateOf)
	Pages int
}

// Record is the full progress log, ordered by date ascending.
// It is reloaded every cycle and never mutated after loading.
type Record struct {
	Entries []Entry
}

// Start returns the first entry, which anchors the campaign.
// Callers must only use it on a record returned by a Repository, which is never empty.
func (r Record) Start() Entry {
	return r.Entries[0]
}

// Current returns the most recent entry.
func (r Record) Current() Entry {
	return r.Entries[len(r.Entries)-1]
}

// Goal is the writing target. It is built once at startup.
type Goal struct {
	Deadline time.Time
	Pages    int
}

// DateOf truncates t to its calendar date, expressed at midnight UTC.
// Day arithmetic across the app works on these values so DST shifts never change a day count.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}
