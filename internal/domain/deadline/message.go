// internal/domain/deadline/message.go
package deadline

import (
	"fmt"
	"strings"
)

const dateLayout = "2006-01-02"

// Message renders the progress report sent to the chat.
// Existing readers of the channel rely on the line order and labels.
func (p *Projection) Message() string {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("Progress update for %s\n\n", p.Today.Format(dateLayout)))

	msg.WriteString(fmt.Sprintf("Current pages: %d\n", p.CurrentPages))
	msg.WriteString(fmt.Sprintf("Pages left: %d\n", p.PagesLeft))
	msg.WriteString(fmt.Sprintf("Days left: %d\n", p.DaysLeft))
	msg.WriteString(fmt.Sprintf("Weekdays left: %d\n", p.WeekdaysLeft))
	msg.WriteString(fmt.Sprintf("Avg pages per day to meet goal (%d) by deadline (%s): %.2f\n",
		p.GoalPages, p.Deadline.Format(dateLayout), p.AvgPagesPerDayLeft))
	if p.AvgPagesPerWeekdayLeft != nil {
		msg.WriteString(fmt.Sprintf("Avg pages per weekday: %.2f\n\n", *p.AvgPagesPerWeekdayLeft))
	} else {
		msg.WriteString("Avg pages per weekday: n/a\n\n")
	}

	msg.WriteString(fmt.Sprintf("Days since started writing: %d\n", p.DaysGone))
	if p.AvgPagesPerDaySoFar != nil {
		msg.WriteString(fmt.Sprintf("Avg pages per day so far: %.2f\n", *p.AvgPagesPerDaySoFar))
	}

	return msg.String()
}
