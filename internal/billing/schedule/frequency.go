package schedule

import "time"

// Frequency is the spacing between installments.
type Frequency string

const (
	FrequencyOneTime   Frequency = "one-time"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOneTime, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly:
		return true
	}
	return false
}

// DueDate returns the date n periods after start. Month based frequencies are
// counted from start and clamped to the last day of the target month, so a
// plan starting Jan 31 falls due Feb 29, Mar 31, Apr 30.
// A one-time lump that follows a deposit is due one month later.
func DueDate(start time.Time, f Frequency, n int) time.Time {
	if n == 0 {
		return start
	}
	switch f {
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7*n)
	case FrequencyBiweekly:
		return start.AddDate(0, 0, 14*n)
	case FrequencyQuarterly:
		return addMonthsClamped(start, 3*n)
	default:
		return addMonthsClamped(start, n)
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
