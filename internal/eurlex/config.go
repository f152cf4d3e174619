package eurlex

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config captures every configuration knob that influences a harvest run.
// All values originate from Viper so the harvester can be configured via
// files, env vars, or CLI flags.
type Config struct {
	// BaseURL is the EUR-Lex root, without a trailing slash.
	BaseURL   string
	UserAgent string
	// MaxActs is the total item budget split across the four strategies.
	MaxActs int
	// Delay is the politeness interval between outbound requests.
	Delay   time.Duration
	Workers int
	// PageLimit bounds pagination per query against malformed searches.
	PageLimit int
	// ContentLimit caps the stored content excerpt, in characters.
	ContentLimit   int
	RequestTimeout time.Duration
	// DrainGrace bounds both a single detail task and the post-cancellation
	// drain of in-flight tasks.
	DrainGrace time.Duration
}

// LoadConfig constructs a Config by reading from Viper. The delay is given
// in float seconds to match the CLI flag.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		BaseURL:        v.GetString("harvest.base_url"),
		UserAgent:      v.GetString("harvest.user_agent"),
		MaxActs:        v.GetInt("harvest.max_acts"),
		Delay:          secondsToDuration(v.GetFloat64("harvest.delay")),
		Workers:        v.GetInt("harvest.workers"),
		PageLimit:      v.GetInt("harvest.page_limit"),
		ContentLimit:   v.GetInt("harvest.content_limit"),
		RequestTimeout: v.GetDuration("harvest.request_timeout"),
		DrainGrace:     v.GetDuration("harvest.drain_grace"),
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("harvest.base_url must be set")
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("harvest.base_url must be an absolute URL: %q", c.BaseURL)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("harvest.user_agent must be set")
	}
	if c.MaxActs <= 0 {
		return fmt.Errorf("harvest.max_acts must be > 0")
	}
	if c.Delay < 0 {
		return fmt.Errorf("harvest.delay must be >= 0")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("harvest.workers must be > 0")
	}
	if c.PageLimit <= 0 {
		return fmt.Errorf("harvest.page_limit must be > 0")
	}
	if c.ContentLimit <= 0 {
		return fmt.Errorf("harvest.content_limit must be > 0")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("harvest.request_timeout must be > 0")
	}
	if c.DrainGrace <= 0 {
		return fmt.Errorf("harvest.drain_grace must be > 0")
	}
	return nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
