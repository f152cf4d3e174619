package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/eurlex-harvester/internal/app"
	"github.com/JakeFAU/eurlex-harvester/internal/config"
	"github.com/JakeFAU/eurlex-harvester/internal/eurlex"
	"github.com/JakeFAU/eurlex-harvester/internal/logging"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands use. This allows us to
// inject a mock app during tests.
type App interface {
	Close()
	GetLogger() *zap.Logger
	GetConfig() eurlex.Config
	GetScraper() *eurlex.Scraper
}

// newApp is the application factory. It's a variable so we can replace it
// with a mock factory in our tests.
var newApp func(ctx context.Context) (App, error) = func(ctx context.Context) (App, error) {
	return app.NewApp(ctx)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lexharvest",
		Short: "A concurrent, deduplicating harvester for EUR-Lex legal acts.",
		Long: `lexharvest walks the EUR-Lex search interface along four discovery
strategies (document types, publication years, curated subject terms, and
the recently-published feed), skips everything already persisted, and stores
one record per legal act together with its extracted metadata.`,

		// This hook runs AFTER config is loaded but BEFORE the subcommand's
		// RunE, so it is the place to build and inject the application.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logging.Init(viper.GetBool("log.development")); err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}

			// Store the app instance in the context for subcommands to use.
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		// This hook ensures services are shut down gracefully.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	// Initialize Viper configuration once a command actually runs.
	cobra.OnInitialize(func() { config.InitConfig(cfgFile) })

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default searches ., /etc/lexharvest, $HOME/.lexharvest)")

	cmd.AddCommand(newScrapeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		logging.L.Fatal("Command execution failed", zap.Error(err))
	}
}
