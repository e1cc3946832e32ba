package config

import "fmt"

// ETLConfig defines the ingestion cadence.
type ETLConfig struct {
	PollIntervalSeconds int `json:"poll_interval_seconds"`
	// CycleTimeoutSeconds bounds a whole cycle; pending calls past the
	// deadline are abandoned as timeouts.
	CycleTimeoutSeconds int `json:"cycle_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *ETLConfig) SetDefaults() {
	if c.PollIntervalSeconds <= 0 {
		c.PollIntervalSeconds = 300
	}
	if c.CycleTimeoutSeconds <= 0 {
		c.CycleTimeoutSeconds = 120
	}
}

// Validate checks field consistency.
func (c ETLConfig) Validate() error {
	if c.CycleTimeoutSeconds > c.PollIntervalSeconds {
		return fmt.Errorf("cycle_timeout_seconds must not exceed poll_interval_seconds")
	}
	return nil
}
