package usage

import "time"

func defaultUsage() Usage {
	return Usage{
		Plan:     "Free",
		Limit:    200,
		Used:     0,
		ResetsAt: nextWeeklyReset(time.Now().UTC()),
	}
}

// nextWeeklyReset returns the first Monday 00:00 UTC strictly after t. Quota
// windows are calendar-aligned so every user resets at the same instant.
func nextWeeklyReset(t time.Time) time.Time {
	t = t.UTC()
	days := (8 - int(t.Weekday())) % 7
	if days == 0 {
		days = 7
	}
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, days)
}
