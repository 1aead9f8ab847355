package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FixedMonthlyCost is the default Claude Code Max plan price in dollars.
const FixedMonthlyCost = 200

// RoleRule maps a path pattern to a role label.
type RoleRule struct {
	Pattern string `yaml:"pattern"`
	Role    string `yaml:"role"`
}

// Twilio holds the billing API settings. Credentials come from the
// environment, not the config file.
type Twilio struct {
	BaseURL string `yaml:"base_url"`
}

// Config holds everything the exporter reads or assumes: source paths, the
// role table, and the fixed plan cost. It is built once in main and passed
// into each component so tests can substitute their own.
type Config struct {
	ProjectsDir      string     `yaml:"projects_dir"`
	TranscriptsDir   string     `yaml:"transcripts_dir"`
	FixedMonthlyCost float64    `yaml:"fixed_monthly_cost"`
	Roles            []RoleRule `yaml:"roles"`
	Twilio           Twilio     `yaml:"twilio"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		ProjectsDir:      filepath.Join(home, ".claude", "projects"),
		TranscriptsDir:   filepath.Join(home, "CascadeProjects", "chorus", "clearing", "transcripts"),
		FixedMonthlyCost: FixedMonthlyCost,
		Roles: []RoleRule{
			{Pattern: "-architect/", Role: "silas"},
			{Pattern: "-engineer/", Role: "kade"},
			{Pattern: "-product-manager/", Role: "wren"},
			{Pattern: "-personal-site/", Role: "app"},
		},
		Twilio: Twilio{BaseURL: "https://api.twilio.com"},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".costmetrics.yaml"), nil
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields the defaults; a present file overrides only
// the keys it sets.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ResolveRole maps a source file path to a role label. The first rule whose
// pattern is a substring of the path wins; unmatched paths are "other".
func (c *Config) ResolveRole(path string) string {
	for _, rule := range c.Roles {
		if strings.Contains(path, rule.Pattern) {
			return rule.Role
		}
	}
	return "other"
}
