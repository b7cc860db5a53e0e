package domain

import "time"

// UTCDay is a closed UTC calendar-day interval [Start, End].
type UTCDay struct {
	Start time.Time
	End   time.Time
}

// UTCDayRange returns the UTC calendar day containing t, from
// 00:00:00.000 to 23:59:59.999.
func UTCDayRange(t time.Time) UTCDay {
	start := StartOfUTCDay(t)
	return UTCDay{
		Start: start,
		End:   start.Add(24*time.Hour - time.Millisecond),
	}
}

// StartOfUTCDay truncates t to midnight UTC of the same calendar day.
func StartOfUTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Contains reports whether t falls inside the day, bounds included.
func (d UTCDay) Contains(t time.Time) bool {
	return !t.Before(d.Start) && !t.After(d.End)
}

// Next returns the start of the following UTC day.
func (d UTCDay) Next() time.Time {
	return d.Start.AddDate(0, 0, 1)
}
