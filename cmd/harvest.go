package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"catalog-harvester/feature/harvest/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	purgeOlderThan time.Duration
	clearHistory   bool
	clearAll       bool
	yesConfirm     bool
)

// harvestCmd is the parent command for harvest operations.
var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Run and maintain harvest passes",
}

var harvestRunCmd = &cobra.Command{
	Use:   "run <source-id>",
	Short: "Run one harvest pass for a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.logger.Sync()

		summary, err := a.service.RunPass(cmd.Context(), args[0])
		if summary != nil {
			printPassSummary(a.logger, summary)
		}
		return err
	},
}

var harvestPurgeCmd = &cobra.Command{
	Use:   "purge <source-id>",
	Short: "Delete superseded harvest objects",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.logger.Sync()

		n, err := a.service.Purge(cmd.Context(), args[0], purgeOlderThan)
		if err != nil {
			return err
		}
		a.logger.Info("Purged superseded harvest objects", zap.String("source_id", args[0]), zap.Int64("count", n))
		return nil
	},
}

var harvestClearCmd = &cobra.Command{
	Use:   "clear [source-id]",
	Short: "Clear a source's jobs and objects",
	Long: `Clear a harvest source.

Without --history every job, harvest object and harvested dataset of the
source is deleted. With --history only superseded objects and empty jobs are
deleted and datasets are kept. --history --all clears the history of every
source.

Examples:
  harvest clear 1b4e... --history
  harvest clear --history --all
  harvest clear 1b4e... --yes`,
	Args: func(cmd *cobra.Command, args []string) error {
		if clearAll {
			if !clearHistory {
				return fmt.Errorf("--all requires --history")
			}
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.logger.Sync()

		if clearAll {
			reports, err := a.service.ClearAllHistory(cmd.Context())
			for _, report := range reports {
				a.logger.Info("Cleared harvest history",
					zap.String("source_id", report.SourceID),
					zap.Int64("objects", report.Objects),
					zap.Int64("jobs", report.Jobs),
					zap.Bool("skipped", report.Skipped),
				)
			}
			return err
		}

		if clearHistory {
			report, err := a.service.ClearHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.logger.Info("Cleared harvest history",
				zap.String("source_id", report.SourceID),
				zap.Int64("objects", report.Objects),
				zap.Int64("jobs", report.Jobs),
			)
			return nil
		}

		if !confirmDestructiveAction() {
			a.logger.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}
		report, err := a.service.ClearSource(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		a.logger.Info("Cleared harvest source",
			zap.String("source_id", report.SourceID),
			zap.Int64("objects", report.Objects),
			zap.Int64("jobs", report.Jobs),
			zap.Int("datasets_deleted", report.DatasetsDeleted),
			zap.Int("snapshots", report.Snapshots),
		)
		return nil
	},
}

func init() {
	harvestPurgeCmd.Flags().DurationVar(&purgeOlderThan, "older-than", 0, "Only purge objects older than this (e.g. 720h)")
	harvestClearCmd.Flags().BoolVar(&clearHistory, "history", false, "Only clear superseded objects and empty jobs")
	harvestClearCmd.Flags().BoolVar(&clearAll, "all", false, "With --history, clear every source")
	harvestClearCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")

	harvestCmd.AddCommand(harvestRunCmd, harvestPurgeCmd, harvestClearCmd)
	RootCmd.AddCommand(harvestCmd)
}

// printPassSummary logs the outcome of a pass, with a sample of failures.
func printPassSummary(l *zap.Logger, s *models.PassSummary) {
	l.Info("Harvest pass report",
		zap.String("job_id", s.JobID),
		zap.Int("new", s.StagedNew),
		zap.Int("changed", s.StagedChanged),
		zap.Int("deleted", s.StagedDeleted),
		zap.Int("resolved", s.Resolved),
		zap.Int("unchanged", s.Unchanged),
		zap.Int("failed", s.Failed),
		zap.Int("recovered", s.Recovered),
		zap.Int("superseded", s.Superseded),
	)
	for _, w := range s.Warnings {
		l.Warn("Pass warning", zap.String("warning", w))
	}

	maxShow := min(5, len(s.Failures))
	for _, f := range s.Failures[:maxShow] {
		l.Warn("Failed record",
			zap.String("identifier", f.Identifier),
			zap.String("classification", string(f.Classification)),
			zap.String("cause", f.Cause),
		)
	}
	if len(s.Failures) > maxShow {
		l.Info("Additional failures not shown", zap.Int("count", len(s.Failures)-maxShow))
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to delete every dataset of this source: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
