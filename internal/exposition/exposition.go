// Package exposition renders one evaluation pass as Prometheus text
// exposition, suitable for a node_exporter textfile collector.
package exposition

import (
	"fmt"
	"io"
	"math"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/jeffbridwell/costmetrics/internal/aggregator"
	"github.com/jeffbridwell/costmetrics/internal/model"
	"github.com/jeffbridwell/costmetrics/internal/twilio"
)

// dailyWindow is how many trailing days get per-day metrics.
const dailyWindow = 7

// Renderer formats computed rollups and costs as metric families.
//
// Families are built as client_model protos and encoded one at a time
// rather than gathered from a registry: the dashboard consuming this file
// expects the documented order, and a registry gathers alphabetically.
type Renderer struct {
	fixedCost float64
}

// NewRenderer returns a renderer with the given fixed monthly cost in
// dollars.
func NewRenderer(fixedCostDollars float64) *Renderer {
	return &Renderer{fixedCost: fixedCostDollars}
}

// sample is one metric line: an optional single label pair and a value.
type sample struct {
	labelName  string
	labelValue string
	value      float64
}

func bare(value float64) sample {
	return sample{value: value}
}

func labeled(name, value string, v float64) sample {
	return sample{labelName: name, labelValue: value, value: v}
}

// gauge builds a gauge family from samples.
func gauge(name, help string, samples ...sample) *dto.MetricFamily {
	mf := &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
	for _, s := range samples {
		m := &dto.Metric{Gauge: &dto.Gauge{Value: proto.Float64(s.value)}}
		if s.labelName != "" {
			m.Label = []*dto.LabelPair{{
				Name:  proto.String(s.labelName),
				Value: proto.String(s.labelValue),
			}}
		}
		mf.Metric = append(mf.Metric, m)
	}
	return mf
}

// round1 and round4 pin percentages to one decimal and dollar figures to
// four, so published values don't carry accumulated float noise.
func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

// Render writes the full metrics snapshot to w in the fixed documented
// order. Families that would carry no samples (no roles seen, no activity
// today) are omitted entirely; expfmt refuses to encode an empty family.
func (r *Renderer) Render(w io.Writer, report *model.Report, burn aggregator.BurnRate, tw twilio.Usage, clearingDollars float64, clearingSessions int64) error {
	totalMessages, totalTokens := report.Totals()

	families := []*dto.MetricFamily{
		gauge("claude_billing_month_elapsed_pct", "Percentage of billing month elapsed",
			bare(round1(burn.ElapsedPct))),
		gauge("claude_billing_usage_intensity_pct", "Percentage of elapsed days with activity",
			bare(round1(burn.UsagePct))),
		gauge("claude_billing_total_messages", "Total messages this billing period",
			bare(float64(totalMessages))),
		gauge("claude_billing_total_sessions", "Total sessions this billing period",
			bare(float64(len(report.Sessions)))),
		gauge("claude_billing_output_tokens", "Total output tokens this billing period",
			bare(float64(totalTokens.OutputTokens))),
		gauge("claude_billing_input_tokens", "Total input tokens this billing period",
			bare(float64(totalTokens.InputTokens))),
		gauge("claude_billing_cache_read_tokens", "Total cache read tokens this billing period",
			bare(float64(totalTokens.CacheReadInputTokens))),
		gauge("claude_billing_estimated_api_cost_dollars", "What this period's tokens would cost at per-token API rates",
			bare(round4(report.EstimatedAPICost))),
	}

	var roleMessages, roleOutput []sample
	for _, role := range report.SortedRoles() {
		totals := report.ByRole[role]
		roleMessages = append(roleMessages, labeled("role", role, float64(totals.Messages)))
		roleOutput = append(roleOutput, labeled("role", role, float64(totals.Tokens.OutputTokens)))
	}
	families = append(families,
		gauge("claude_role_messages", "Messages by role this billing period", roleMessages...),
		gauge("claude_role_output_tokens", "Output tokens by role this billing period", roleOutput...),
	)

	days := report.SortedDays()
	if len(days) > dailyWindow {
		days = days[len(days)-dailyWindow:]
	}
	var dayMessages, dayOutput, daySessions []sample
	for _, day := range days {
		totals := report.Daily[day]
		dayMessages = append(dayMessages, labeled("date", day, float64(totals.Messages)))
		dayOutput = append(dayOutput, labeled("date", day, float64(totals.Tokens.OutputTokens)))
		daySessions = append(daySessions, labeled("date", day, float64(len(totals.Sessions))))
	}
	families = append(families,
		gauge("claude_daily_messages", "Messages per day", dayMessages...),
		gauge("claude_daily_output_tokens", "Output tokens per day", dayOutput...),
		gauge("claude_daily_sessions", "Sessions per day", daySessions...),
	)

	var hourly []sample
	for hour := 0; hour < 24; hour++ {
		if count := report.Hourly[hour]; count > 0 {
			hourly = append(hourly, labeled("hour", fmt.Sprintf("%02d", hour), float64(count)))
		}
	}
	families = append(families,
		gauge("claude_hourly_messages", "Messages by hour of day", hourly...),
	)

	if today, ok := report.Daily[report.Today]; ok {
		families = append(families,
			gauge("claude_today_messages", "Messages today", bare(float64(today.Messages))),
			gauge("claude_today_output_tokens", "Output tokens today", bare(float64(today.Tokens.OutputTokens))),
			gauge("claude_today_sessions", "Sessions today", bare(float64(len(today.Sessions)))),
		)
	}

	variableTotal := tw.SMSDollars + tw.NumberDollars + clearingDollars
	families = append(families,
		gauge("cost_twilio_sms_dollars", "Twilio SMS cost this billing period",
			bare(round4(tw.SMSDollars))),
		gauge("cost_twilio_sms_count", "Twilio SMS count this billing period",
			bare(float64(tw.SMSCount))),
		gauge("cost_twilio_numbers_dollars", "Twilio phone number cost this billing period",
			bare(round4(tw.NumberDollars))),
		gauge("cost_twilio_numbers_count", "Twilio phone number count",
			bare(float64(tw.NumberCount))),
		gauge("cost_clearing_dollars", "Clearing session cost this billing period",
			bare(round4(clearingDollars))),
		gauge("cost_clearing_sessions", "Clearing session count this billing period",
			bare(float64(clearingSessions))),
		gauge("cost_variable_total_dollars", "Total variable cost this billing period",
			bare(round4(variableTotal))),
		gauge("cost_fixed_claude_dollars", "Claude Code fixed monthly cost",
			bare(r.fixedCost)),
		gauge("cost_total_dollars", "Total cost (fixed + variable)",
			bare(round4(r.fixedCost+variableTotal))),
	)

	for _, mf := range families {
		if len(mf.Metric) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
