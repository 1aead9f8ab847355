package model

import "sort"

// TokenUsage contains token counts from a Claude API response.
type TokenUsage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheReadInputTokens     int64
	CacheCreationInputTokens int64
}

// Add accumulates another usage block into this one.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheReadInputTokens += other.CacheReadInputTokens
	u.CacheCreationInputTokens += other.CacheCreationInputTokens
}

// UsageRecord represents a single usage entry from a Claude Code JSONL file.
// Timestamp is kept as the raw ISO-8601 string: zero-padded dates compare
// lexicographically, so the billing window filter never needs to parse it.
type UsageRecord struct {
	Timestamp string
	SessionID string
	Model     string
	Usage     TokenUsage
}

// SourceGroup is every record parsed from one project subtree, tagged with
// the role derived from the subtree's path.
type SourceGroup struct {
	Role    string
	Records []UsageRecord
}

// DayTotals is one calendar day's rollup.
type DayTotals struct {
	Tokens   TokenUsage
	Messages int64
	Sessions map[string]struct{}
}

// RoleTotals is one role's rollup. Roles do not track sessions.
type RoleTotals struct {
	Tokens   TokenUsage
	Messages int64
}

// Report holds every rollup produced by one evaluation pass. It is built
// empty, populated by a single scan, rendered, and discarded.
type Report struct {
	Daily    map[string]*DayTotals // keyed YYYY-MM-DD
	ByRole   map[string]*RoleTotals
	Hourly   map[int]int64 // keyed hour of day, 0-23
	Sessions map[string]struct{}

	// EstimatedAPICost is what the period's tokens would have cost at
	// per-token API rates, for comparison against the fixed plan.
	EstimatedAPICost float64

	Today string // YYYY-MM-DD
}

// NewReport returns an empty report for the given evaluation day.
func NewReport(today string) *Report {
	return &Report{
		Daily:    make(map[string]*DayTotals),
		ByRole:   make(map[string]*RoleTotals),
		Hourly:   make(map[int]int64),
		Sessions: make(map[string]struct{}),
		Today:    today,
	}
}

// Day returns the rollup for a day key, creating it on first use.
func (r *Report) Day(key string) *DayTotals {
	d, ok := r.Daily[key]
	if !ok {
		d = &DayTotals{Sessions: make(map[string]struct{})}
		r.Daily[key] = d
	}
	return d
}

// Role returns the rollup for a role, creating it on first use.
func (r *Report) Role(key string) *RoleTotals {
	rt, ok := r.ByRole[key]
	if !ok {
		rt = &RoleTotals{}
		r.ByRole[key] = rt
	}
	return rt
}

// Totals sums messages and tokens across all days in the report.
func (r *Report) Totals() (messages int64, tokens TokenUsage) {
	for _, d := range r.Daily {
		messages += d.Messages
		tokens.Add(d.Tokens)
	}
	return messages, tokens
}

// SortedDays returns the report's day keys in ascending order.
func (r *Report) SortedDays() []string {
	days := make([]string, 0, len(r.Daily))
	for day := range r.Daily {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

// SortedRoles returns the report's role keys in ascending order.
func (r *Report) SortedRoles() []string {
	roles := make([]string, 0, len(r.ByRole))
	for role := range r.ByRole {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// ModelPricing contains per-token pricing for a model.
type ModelPricing struct {
	InputCostPerToken         float64
	OutputCostPerToken        float64
	CacheCreationCostPerToken float64
	CacheReadCostPerToken     float64
}
