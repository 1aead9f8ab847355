package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jeffbridwell/costmetrics/internal/aggregator"
	"github.com/jeffbridwell/costmetrics/internal/config"
	"github.com/jeffbridwell/costmetrics/internal/exposition"
	"github.com/jeffbridwell/costmetrics/internal/parser"
	"github.com/jeffbridwell/costmetrics/internal/transcripts"
	"github.com/jeffbridwell/costmetrics/internal/twilio"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "costmetrics",
		Short: "Export Claude Code usage and variable costs as Prometheus metrics",
		Long: `costmetrics scans Claude Code JSONL session logs, fetches Twilio
month-to-date usage, sums Clearing transcript costs, and prints one
Prometheus text-exposition snapshot to stdout.

Run it from cron and pipe the output into a node_exporter textfile
collector file:

  */5 * * * * costmetrics > cost_metrics.prom.tmp && mv cost_metrics.prom.tmp cost_metrics.prom

Logs go to stderr; stdout carries only metrics.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, logLevel)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default ~/.costmetrics.yaml)")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.Version = version
	cmd.SetVersionTemplate(fmt.Sprintf("costmetrics %s\n", version))

	return cmd
}

func run(configPath, logLevel string) error {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	log.SetLevel(level)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	now := time.Now()

	scanner := parser.NewScanner(cfg.ProjectsDir, cfg.ResolveRole, log)
	groups := scanner.Groups()

	report := aggregator.New(log).Aggregate(groups, now)
	burn := aggregator.ComputeBurnRate(report.Daily, report.Today)

	tw := twilio.NewFromEnv(cfg.Twilio.BaseURL, log).MonthToDateUsage(now)

	clearingDollars, clearingSessions := transcripts.Scan(
		cfg.TranscriptsDir, aggregator.BillingPeriodStart(now), log)

	renderer := exposition.NewRenderer(cfg.FixedMonthlyCost)
	return renderer.Render(os.Stdout, report, burn, tw, clearingDollars, clearingSessions)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
