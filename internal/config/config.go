// Package config is responsible for initializing the application's configuration.
// It uses the Viper library to read settings from a config file, environment
// variables, and command-line flags, providing a unified configuration system.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/eurlex-harvester/internal/logging"
)

// InitConfig initializes the application's configuration using Viper.
// It sets up default values, defines configuration search paths, and enables
// reading from environment variables. When cfgFile is non-empty it is used
// verbatim instead of the search paths. Designed to be called once at startup
// via cobra.OnInitialize.
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")                  // Current working directory
		viper.AddConfigPath("/etc/lexharvest/")   // System-wide configuration
		viper.AddConfigPath("$HOME/.lexharvest")  // User-specific configuration
	}

	setDefaults()

	// Environment variables take the form LEXHARVEST_SECTION_KEY, e.g.
	// LEXHARVEST_STORE_PROVIDER=postgres.
	viper.SetEnvPrefix("LEXHARVEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			logging.L.Debug("No config file found; using defaults and environment")
		} else {
			logging.L.Warn("Failed to read config file", zap.Error(err))
		}
		return
	}
	logging.L.Info("Loaded configuration file", zap.String("file", viper.ConfigFileUsed()))
}

func setDefaults() {
	const defaultUA = "LexHarvest/1.0 (+https://github.com/JakeFAU/eurlex-harvester)"

	viper.SetDefault("harvest.base_url", "https://eur-lex.europa.eu")
	viper.SetDefault("harvest.user_agent", defaultUA)
	viper.SetDefault("harvest.max_acts", 1000)
	viper.SetDefault("harvest.delay", 1.0)
	viper.SetDefault("harvest.workers", 3)
	viper.SetDefault("harvest.page_limit", 50)
	viper.SetDefault("harvest.content_limit", 10000)
	viper.SetDefault("harvest.request_timeout", "15s")
	viper.SetDefault("harvest.drain_grace", "45s")
	viper.SetDefault("harvest.headless.enabled", false)
	viper.SetDefault("harvest.headless.nav_timeout", "45s")
	// Politeness comes from the rate limiter; robots.txt blocks the search
	// pages outright, so honoring it disables the harvester.
	viper.SetDefault("harvest.respect_robots", false)

	viper.SetDefault("store.provider", "memory")
	viper.SetDefault("store.postgres.dsn", "")
	viper.SetDefault("store.postgres.table", "legal_acts")

	viper.SetDefault("archive.provider", "noop")
	viper.SetDefault("archive.gcs.bucket_name", "")
	viper.SetDefault("archive.gcs.prefix", "harvest")
	viper.SetDefault("archive.local.base_dir", "./archive")

	viper.SetDefault("notify.provider", "noop")
	viper.SetDefault("notify.pubsub.project_id", "")
	viper.SetDefault("notify.pubsub.topic_id", "")

	viper.SetDefault("api.enabled", true)
	viper.SetDefault("api.listen", ":8080")
	viper.SetDefault("api.auth.enabled", false)
	viper.SetDefault("api.auth.api_key", "")

	viper.SetDefault("progress.buffer", 256)
	viper.SetDefault("progress.batch_size", 32)
	viper.SetDefault("progress.flush_interval", "2s")

	viper.SetDefault("log.development", false)
}
