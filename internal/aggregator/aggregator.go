package aggregator

import (
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeffbridwell/costmetrics/internal/model"
	"github.com/jeffbridwell/costmetrics/internal/pricing"
)

// BillingPeriodStart returns the first day of now's month as YYYY-MM-DD.
// It is the inclusive lower bound for every rollup.
func BillingPeriodStart(now time.Time) string {
	return now.Format("2006-01") + "-01"
}

// Aggregator folds usage records into the billing-period rollups.
type Aggregator struct {
	log logrus.FieldLogger
}

// New returns an aggregator.
func New(log logrus.FieldLogger) *Aggregator {
	return &Aggregator{log: log}
}

// Aggregate consumes the role-tagged record groups and produces the daily,
// per-role, and hourly rollups plus the distinct session set, filtered to
// the billing period containing now. Records without a timestamp, or dated
// before the period start, contribute nothing.
//
// The date filter compares raw day strings: zero-padded ISO dates order
// lexicographically the same as the dates themselves.
func (a *Aggregator) Aggregate(groups []model.SourceGroup, now time.Time) *model.Report {
	start := BillingPeriodStart(now)
	report := model.NewReport(now.Format("2006-01-02"))

	for _, group := range groups {
		for _, rec := range group.Records {
			ts := rec.Timestamp
			if ts == "" {
				continue
			}

			day := ts
			if len(day) > 10 {
				day = day[:10]
			}
			if day < start {
				continue
			}

			// Hour of day from the timestamp's HH substring. Too-short
			// timestamps (and unparseable hours) land in bucket 0.
			hour := 0
			if len(ts) > 13 {
				if h, err := strconv.Atoi(ts[11:13]); err == nil {
					hour = h
				}
			}

			d := report.Day(day)
			d.Tokens.Add(rec.Usage)
			d.Messages++
			d.Sessions[rec.SessionID] = struct{}{}

			r := report.Role(group.Role)
			r.Tokens.Add(rec.Usage)
			r.Messages++

			report.Hourly[hour]++
			report.Sessions[rec.SessionID] = struct{}{}

			report.EstimatedAPICost += pricing.Cost(rec.Usage, pricing.Lookup(rec.Model))
		}
	}

	messages, _ := report.Totals()
	a.log.WithFields(logrus.Fields{
		"since":    start,
		"messages": messages,
		"sessions": len(report.Sessions),
	}).Debug("aggregated billing period")

	return report
}
