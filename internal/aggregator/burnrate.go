package aggregator

import (
	"time"

	"github.com/jeffbridwell/costmetrics/internal/model"
)

// BurnRate compares activity intensity against calendar time elapsed in the
// billing period.
type BurnRate struct {
	// ElapsedPct is how far through the month the evaluation day is.
	ElapsedPct float64
	// UsagePct is the share of elapsed days that saw any activity.
	UsagePct float64
}

// ComputeBurnRate derives the two percentages from the daily rollup and
// today's date string (YYYY-MM-DD).
//
// February is always 28 days here. The alert thresholds downstream were
// tuned against that conservative figure, so leap years stay out.
func ComputeBurnRate(daily map[string]*model.DayTotals, today string) BurnRate {
	t, err := time.Parse("2006-01-02", today)
	if err != nil {
		return BurnRate{}
	}

	daysInMonth := 28
	switch t.Month() {
	case time.January, time.March, time.May, time.July, time.August, time.October, time.December:
		daysInMonth = 31
	case time.April, time.June, time.September, time.November:
		daysInMonth = 30
	}

	elapsedPct := float64(t.Day()) / float64(daysInMonth) * 100

	activeDays := 0
	for _, d := range daily {
		if d.Messages > 0 {
			activeDays++
		}
	}

	elapsedDays := t.Day()
	if elapsedDays < 1 {
		elapsedDays = 1
	}
	usagePct := float64(activeDays) / float64(elapsedDays) * 100

	return BurnRate{ElapsedPct: elapsedPct, UsagePct: usagePct}
}
