package chat

import "time"

const dateOptionDays = 7

// isoDate is the wire format for calendar dates.
const isoDate = "2006-01-02"

// displayDate matches the widget's locale formatting, e.g. "Monday, January 2".
const displayDate = "Monday, January 2"

// upcomingDateOptions builds one selectable option per calendar day, starting
// tomorrow, for the next dateOptionDays days. Option values are ISO dates.
func upcomingDateOptions(now time.Time) []MessageOption {
	options := make([]MessageOption, 0, dateOptionDays)
	for i := 1; i <= dateOptionDays; i++ {
		day := now.AddDate(0, 0, i)
		iso := day.Format(isoDate)
		options = append(options, MessageOption{
			ID:     iso,
			Text:   day.Format(displayDate),
			Value:  iso,
			Action: ActionSelectDate,
		})
	}
	return options
}

// formatDisplayDate renders an ISO date for user-facing text. Unparseable
// input is returned as-is rather than dropped.
func formatDisplayDate(iso string) string {
	day, err := time.Parse(isoDate, iso)
	if err != nil {
		return iso
	}
	return day.Format(displayDate)
}
