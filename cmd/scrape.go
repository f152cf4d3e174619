// Package cmd defines and implements the CLI commands for the lexharvest
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// newScrapeCmd creates and configures the 'scrape' subcommand. It retrieves
// the application instance from the context and drives one comprehensive
// harvest run, or just reports statistics when --stats-only is given.
func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Starts a comprehensive EUR-Lex harvest",
		Long: `Discovers legal acts along the configured strategies, fetches each
unseen act's detail page, and persists one record per CELEX number. The run
splits the total budget evenly across strategies and stops early on
interrupt, keeping everything persisted so far.`,

		RunE: runScrapeCommand,
	}

	cmd.Flags().Int("max-acts", 1000, "total act budget, split across discovery strategies")
	cmd.Flags().Float64("delay", 1.0, "politeness delay between requests, in seconds")
	cmd.Flags().Int("workers", 3, "concurrent detail-page workers")
	cmd.Flags().Bool("stats-only", false, "report harvest statistics without scraping")

	// Flags, env vars, and the config file all land on the same viper keys;
	// an explicitly set flag wins.
	cobra.CheckErr(viper.BindPFlag("harvest.max_acts", cmd.Flags().Lookup("max-acts")))
	cobra.CheckErr(viper.BindPFlag("harvest.delay", cmd.Flags().Lookup("delay")))
	cobra.CheckErr(viper.BindPFlag("harvest.workers", cmd.Flags().Lookup("workers")))

	return cmd
}

func runScrapeCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.GetLogger()

	statsOnly, err := cmd.Flags().GetBool("stats-only")
	if err != nil {
		return fmt.Errorf("read stats-only flag: %w", err)
	}
	if statsOnly {
		return reportStats(cmd.Context(), appInstance)
	}

	// Interrupts cancel cooperatively: in-flight detail tasks drain under
	// the grace bound and the partial count still reports.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := appInstance.GetConfig()
	maxActs := viper.GetInt("harvest.max_acts")
	logger.Info("Starting comprehensive harvest",
		zap.Int("max_acts", maxActs),
		zap.Int("workers", cfg.Workers),
		zap.Duration("delay", cfg.Delay))

	saved, err := appInstance.GetScraper().ScrapeComprehensive(ctx, maxActs)
	if err != nil {
		return fmt.Errorf("run harvest: %w", err)
	}

	if ctx.Err() != nil {
		logger.Info("Harvest interrupted; partial results persisted",
			zap.Int("acts_saved", saved))
	} else {
		logger.Info("Harvest complete", zap.Int("acts_saved", saved))
	}

	return reportStats(cmd.Context(), appInstance)
}

// reportStats logs the persisted totals and registry size. Used by the
// --stats-only path and as the closing summary of a harvest.
func reportStats(ctx context.Context, appInstance App) error {
	stats, err := appInstance.GetScraper().Stats(ctx)
	if err != nil {
		return fmt.Errorf("collect stats: %w", err)
	}
	appInstance.GetLogger().Info("Harvest statistics",
		zap.Int("total_acts", stats.TotalActs),
		zap.Int("registry_size", stats.RegistrySize),
		zap.Time("timestamp", stats.Timestamp))
	return nil
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}
