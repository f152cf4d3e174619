// Package app_test contains unit tests for the app package.
package app_test

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/eurlex-harvester/internal/app"
	"github.com/JakeFAU/eurlex-harvester/internal/logging"
)

func TestMain(m *testing.M) {
	// Initialize the logger for all tests in this package.
	if err := logging.Init(true); err != nil {
		panic(err)
	}
	m.Run()
}

// setupTest configures Viper with a valid harvest config and in-process
// providers so NewApp never touches the network or the filesystem.
func setupTest() {
	viper.Reset()
	viper.Set("harvest.base_url", "https://eur-lex.europa.eu")
	viper.Set("harvest.user_agent", "lexharvest-test/1.0")
	viper.Set("harvest.max_acts", 12)
	viper.Set("harvest.delay", 0.0)
	viper.Set("harvest.workers", 2)
	viper.Set("harvest.page_limit", 5)
	viper.Set("harvest.content_limit", 1000)
	viper.Set("harvest.request_timeout", "5s")
	viper.Set("harvest.drain_grace", "5s")
	viper.Set("store.provider", "memory")
	viper.Set("archive.provider", "memory")
	viper.Set("notify.provider", "memory")
	viper.Set("api.enabled", false)
}

func TestNewApp_Success(t *testing.T) {
	setupTest()
	ctx := context.Background()

	a, err := app.NewApp(ctx)
	require.NoError(t, err)
	require.NotNil(t, a)
	defer a.Close()

	assert.NotNil(t, a.GetLogger())
	assert.NotNil(t, a.GetScraper())
	assert.NotNil(t, a.GetSink())
	assert.Equal(t, 2, a.GetConfig().Workers)
}

func TestNewApp_ConfigErrors(t *testing.T) {
	testCases := []struct {
		name          string
		configSetup   func()
		expectedError string
	}{
		{
			name: "Invalid harvest config",
			configSetup: func() {
				viper.Set("harvest.max_acts", 0)
			},
			expectedError: "harvest.max_acts must be > 0",
		},
		{
			name: "Postgres store missing DSN",
			configSetup: func() {
				viper.Set("store.provider", "postgres")
				viper.Set("store.postgres.dsn", "")
			},
			expectedError: "store provider is 'postgres' but store.postgres.dsn is not set",
		},
		{
			name: "GCS archive missing bucket",
			configSetup: func() {
				viper.Set("archive.provider", "gcs")
				viper.Set("archive.gcs.bucket_name", "")
			},
			expectedError: "archive provider is 'gcs' but archive.gcs.bucket_name is not set",
		},
		{
			name: "Pub/Sub notifier missing project ID",
			configSetup: func() {
				viper.Set("notify.provider", "pubsub")
				viper.Set("notify.pubsub.project_id", "")
				viper.Set("notify.pubsub.topic_id", "test-topic")
			},
			expectedError: "notify provider is 'pubsub' but project_id or topic_id is not set",
		},
		{
			name: "Unknown store provider",
			configSetup: func() {
				viper.Set("store.provider", "unknown")
			},
			expectedError: "unknown store provider: unknown",
		},
		{
			name: "Unknown archive provider",
			configSetup: func() {
				viper.Set("archive.provider", "unknown")
			},
			expectedError: "unknown archive provider: unknown",
		},
		{
			name: "Unknown notify provider",
			configSetup: func() {
				viper.Set("notify.provider", "unknown")
			},
			expectedError: "unknown notify provider: unknown",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setupTest()
			tc.configSetup()
			ctx := context.Background()

			_, err := app.NewApp(ctx)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedError)
		})
	}
}

func TestApp_Close(t *testing.T) {
	setupTest()
	ctx := context.Background()

	a, err := app.NewApp(ctx)
	require.NoError(t, err)

	assert.NotPanics(t, a.Close)
	// Close runs from a command PostRun hook; a second invocation must be
	// harmless.
	assert.NotPanics(t, a.Close)
}
