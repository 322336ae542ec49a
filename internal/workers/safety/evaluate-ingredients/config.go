package evaluateingredients

import (
	"fmt"
	"time"

	"cosmetic-insights/internal/common/config"
)

// Config holds the worker settings.
type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	// AlertsEnabled publishes a safety alert for Poor-rated products.
	AlertsEnabled bool
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
	}
}

// ConfigFromApp reads the worker section for TaskType.
func ConfigFromApp(app *config.Config) *Config {
	cfg := DefaultConfig()
	if app == nil {
		return cfg
	}
	if wc, ok := app.Workers[TaskType]; ok {
		cfg.Enabled = wc.Enabled
		if wc.MaxJobsActive > 0 {
			cfg.MaxJobsActive = wc.MaxJobsActive
		}
		if wc.Timeout > 0 {
			cfg.Timeout = time.Duration(wc.Timeout) * time.Millisecond
		}
	}
	cfg.AlertsEnabled = app.Integrations.AWS.SNS.Enabled
	return cfg
}

// Validate rejects non-positive limits.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	return nil
}
