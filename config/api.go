package config

import "fmt"

// APIConfig defines the upstream energy-market API settings, including the
// retry behavior of the extraction client.
type APIConfig struct {
	BaseURL      string `json:"base_url"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	// TokenURL defaults to BaseURL + "/oauth/token".
	TokenURL string `json:"token_url"`
	// TokenMarginSeconds refreshes the token this long before actual expiry.
	TokenMarginSeconds int `json:"token_margin_seconds"`
	TimeoutSeconds     int `json:"timeout_seconds"`
	// MaxAttempts bounds the retries for transient failures (429/5xx/timeout).
	MaxAttempts       int `json:"max_attempts"`
	RetryDelaySeconds int `json:"retry_delay_seconds"`
	// TariffName selects the tariff plan requested from the prices endpoint.
	TariffName string `json:"tariff_name"`
	// SignalDate selects the control-signal day: an ISO date or "last".
	SignalDate        string `json:"signal_date"`
	PriceHorizonHours int    `json:"price_horizon_hours"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.TokenURL == "" && c.BaseURL != "" {
		c.TokenURL = c.BaseURL + "/oauth/token"
	}
	if c.TokenMarginSeconds <= 0 {
		c.TokenMarginSeconds = 300
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryDelaySeconds <= 0 {
		c.RetryDelaySeconds = 5
	}
	if c.TariffName == "" {
		c.TariffName = "home_dynamic"
	}
	if c.SignalDate == "" {
		c.SignalDate = "last"
	}
	if c.PriceHorizonHours <= 0 {
		c.PriceHorizonHours = 24
	}
}

// Validate checks mandatory fields.
func (c APIConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("api base_url is required")
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("api client_id and client_secret are required")
	}
	return nil
}
