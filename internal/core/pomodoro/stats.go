package pomodoro

import "time"

const statDateLayout = "2006-01-02"

// DailyStats counts focus work credited on StatDate.
type DailyStats struct {
	FocusMinutesToday int    `json:"focus_minutes_today"`
	PomodorosToday    int    `json:"pomodoros_today"`
	StatDate          string `json:"stat_date"`
}

// statDay formats the calendar day of now in now's location.
func statDay(now time.Time) string {
	return now.Format(statDateLayout)
}

func freshStats(now time.Time) DailyStats {
	return DailyStats{StatDate: statDay(now)}
}

// rollover zeroes both counters when the stats belong to another day.
func (stats *DailyStats) rollover(now time.Time) {
	today := statDay(now)
	if stats.StatDate != today {
		*stats = DailyStats{StatDate: today}
	}
}
