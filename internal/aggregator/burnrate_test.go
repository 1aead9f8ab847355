package aggregator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeffbridwell/costmetrics/internal/model"
)

// activeDaily builds a daily rollup with n active days in the given month.
func activeDaily(yearMonth string, n int) map[string]*model.DayTotals {
	daily := make(map[string]*model.DayTotals)
	for i := 1; i <= n; i++ {
		daily[fmt.Sprintf("%s-%02d", yearMonth, i)] = &model.DayTotals{Messages: 1}
	}
	return daily
}

func TestComputeBurnRateElapsed(t *testing.T) {
	tests := []struct {
		name  string
		today string
		want  float64
	}{
		{"mid 30-day month", "2025-06-15", 50.0},
		{"first of 31-day month", "2025-08-01", 100.0 / 31},
		{"last of 31-day month", "2025-08-31", 100.0},
		{"February pinned to 28 days", "2024-02-14", 50.0}, // leap year, still /28
		{"February 29 overshoots by design", "2024-02-29", 100.0 / 28 * 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			burn := ComputeBurnRate(nil, tt.today)
			assert.InDelta(t, tt.want, burn.ElapsedPct, 1e-9)
		})
	}
}

func TestComputeBurnRateUsage(t *testing.T) {
	// 3 active days out of 10 elapsed.
	burn := ComputeBurnRate(activeDaily("2025-08", 3), "2025-08-10")
	assert.InDelta(t, 30.0, burn.UsagePct, 1e-9)

	// Every elapsed day active.
	burn = ComputeBurnRate(activeDaily("2025-08", 10), "2025-08-10")
	assert.InDelta(t, 100.0, burn.UsagePct, 1e-9)

	// No activity at all.
	burn = ComputeBurnRate(nil, "2025-08-10")
	assert.Zero(t, burn.UsagePct)
}

func TestComputeBurnRateInactiveDaysExcluded(t *testing.T) {
	daily := activeDaily("2025-08", 2)
	// A day present in the rollup with zero messages is not active.
	daily["2025-08-05"] = &model.DayTotals{}

	burn := ComputeBurnRate(daily, "2025-08-10")
	assert.InDelta(t, 20.0, burn.UsagePct, 1e-9)
}

func TestComputeBurnRateBadDate(t *testing.T) {
	burn := ComputeBurnRate(nil, "not-a-date")
	assert.Zero(t, burn.ElapsedPct)
	assert.Zero(t, burn.UsagePct)
}
