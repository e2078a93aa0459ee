// internal/domain/deadline/projection.go
package deadline

import (
	"fmt"
	"time"

	"deadline_bot/internal/domain/progress"
)

// ErrInvalidDeadline is returned when the deadline is today or already in the past.
var ErrInvalidDeadline = fmt.Errorf("deadline is not in the future")

// Projection holds the pace needed to reach the goal and the pace achieved so far.
// It is computed once per cycle and discarded afterwards.
type Projection struct {
	Today        time.Time
	Deadline     time.Time
	GoalPages    int
	CurrentPages int

	DaysLeft     int
	WeekdaysLeft int
	PagesLeft    int // Negative once the goal has been passed

	AvgPagesPerDayLeft     float64
	AvgPagesPerWeekdayLeft *float64 // nil when no weekday remains before the deadline

	DaysGone            int
	AvgPagesPerDaySoFar *float64 // nil on the first day of the campaign
}

// Project computes the projection for today. The record must be non-empty.
func Project(record progress.Record, goal progress.Goal, today time.Time) (*Projection, error) {
	if len(record.Entries) == 0 {
		return nil, fmt.Errorf("cannot project an empty record: %w", progress.ErrDataUnavailable)
	}

	today = progress.DateOf(today)
	deadlineDate := progress.DateOf(goal.Deadline)

	daysLeft := progress.DaysBetween(today, deadlineDate)
	if daysLeft <= 0 {
		return nil, fmt.Errorf("%w: deadline %s, today %s", ErrInvalidDeadline, deadlineDate.Format(dateLayout), today.Format(dateLayout))
	}

	current := record.Current().Pages
	p := &Projection{
		Today:        today,
		Deadline:     deadlineDate,
		GoalPages:    goal.Pages,
		CurrentPages: current,
		DaysLeft:     daysLeft,
		WeekdaysLeft: WeekdaysBetween(today, deadlineDate),
		PagesLeft:    goal.Pages - current,
		DaysGone:     progress.DaysBetween(record.Start().Date, today),
	}

	p.AvgPagesPerDayLeft = float64(p.PagesLeft) / float64(p.DaysLeft)
	if p.WeekdaysLeft > 0 {
		perWeekday := float64(p.PagesLeft) / float64(p.WeekdaysLeft)
		p.AvgPagesPerWeekdayLeft = &perWeekday
	}
	if p.DaysGone > 0 {
		soFar := float64(current) / float64(p.DaysGone)
		p.AvgPagesPerDaySoFar = &soFar
	}

	return p, nil
}

// WeekdaysBetween counts the days from `from` (inclusive) to `to` (exclusive) that are not Sundays.
// Saturday counts as a writing day.
func WeekdaysBetween(from, to time.Time) int {
	from = progress.DateOf(from)
	to = progress.DateOf(to)

	count := 0
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		if day.Weekday() != time.Sunday {
			count++
		}
	}
	return count
}
