package pricing

import (
	"strings"

	"github.com/jeffbridwell/costmetrics/internal/model"
)

// Embedded returns the built-in per-token pricing table. The table is
// static; the only network call in a run is the billing API fetch.
func Embedded() map[string]model.ModelPricing {
	return map[string]model.ModelPricing{
		// Opus 4.5
		"claude-opus-4-5": {
			InputCostPerToken:         5e-06,
			OutputCostPerToken:        2.5e-05,
			CacheCreationCostPerToken: 6.25e-06,
			CacheReadCostPerToken:     5e-07,
		},
		"claude-opus-4-5-20251101": {
			InputCostPerToken:         5e-06,
			OutputCostPerToken:        2.5e-05,
			CacheCreationCostPerToken: 6.25e-06,
			CacheReadCostPerToken:     5e-07,
		},
		// Opus 4.1
		"claude-opus-4-1-20250805": {
			InputCostPerToken:         1.5e-05,
			OutputCostPerToken:        7.5e-05,
			CacheCreationCostPerToken: 1.875e-05,
			CacheReadCostPerToken:     1.5e-06,
		},
		// Sonnet 4.5
		"claude-sonnet-4-5": {
			InputCostPerToken:         3e-06,
			OutputCostPerToken:        1.5e-05,
			CacheCreationCostPerToken: 3.75e-06,
			CacheReadCostPerToken:     3e-07,
		},
		"claude-sonnet-4-5-20250929": {
			InputCostPerToken:         3e-06,
			OutputCostPerToken:        1.5e-05,
			CacheCreationCostPerToken: 3.75e-06,
			CacheReadCostPerToken:     3e-07,
		},
		// Sonnet 4
		"claude-sonnet-4-20250514": {
			InputCostPerToken:         3e-06,
			OutputCostPerToken:        1.5e-05,
			CacheCreationCostPerToken: 3.75e-06,
			CacheReadCostPerToken:     3e-07,
		},
		// Haiku 4.5
		"claude-haiku-4-5": {
			InputCostPerToken:         1e-06,
			OutputCostPerToken:        5e-06,
			CacheCreationCostPerToken: 1.25e-06,
			CacheReadCostPerToken:     1e-07,
		},
		"claude-haiku-4-5-20251001": {
			InputCostPerToken:         1e-06,
			OutputCostPerToken:        5e-06,
			CacheCreationCostPerToken: 1.25e-06,
			CacheReadCostPerToken:     1e-07,
		},
		// Haiku 3.5
		"claude-3-5-haiku-20241022": {
			InputCostPerToken:         8e-07,
			OutputCostPerToken:        4e-06,
			CacheCreationCostPerToken: 1e-06,
			CacheReadCostPerToken:     8e-08,
		},
	}
}

// defaultPricing is Sonnet-class pricing, used for unknown models.
var defaultPricing = model.ModelPricing{
	InputCostPerToken:         3e-06,
	OutputCostPerToken:        1.5e-05,
	CacheCreationCostPerToken: 3.75e-06,
	CacheReadCostPerToken:     3e-07,
}

// Lookup returns pricing for a model, falling back to a normalized-name
// match and then to Sonnet-class pricing.
func Lookup(modelName string) model.ModelPricing {
	table := Embedded()

	if p, ok := table[modelName]; ok {
		return p
	}

	normalized := normalizeModelName(modelName)
	for name, p := range table {
		if normalizeModelName(name) == normalized {
			return p
		}
	}

	return defaultPricing
}

// normalizeModelName normalizes model names for matching.
func normalizeModelName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", "")
	name = strings.ReplaceAll(name, "_", "")
	return name
}

// Cost calculates the cost of a usage block at the given pricing.
func Cost(usage model.TokenUsage, pricing model.ModelPricing) float64 {
	cost := float64(usage.InputTokens) * pricing.InputCostPerToken
	cost += float64(usage.OutputTokens) * pricing.OutputCostPerToken
	cost += float64(usage.CacheCreationInputTokens) * pricing.CacheCreationCostPerToken
	cost += float64(usage.CacheReadInputTokens) * pricing.CacheReadCostPerToken
	return cost
}
