package config

import (
	"os"
	"path/filepath"
	"testing"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `api:
  base_url: "https://api.example.com"
  client_id: "cid"
  client_secret: "shh"
  tariff_name: "home_dynamic"
database:
  user: "etl"
  password: "pw"
  name: "energy"
etl:
  poll_interval_seconds: 120
  cycle_timeout_seconds: 60
metrics:
  prometheus_enabled: true
mqtt:
  enabled: false
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"base_url", cfg.API.BaseURL, "https://api.example.com"},
		{"client_id", cfg.API.ClientID, "cid"},
		{"token_url default", cfg.API.TokenURL, "https://api.example.com/oauth/token"},
		{"token_margin default", cfg.API.TokenMarginSeconds, 300},
		{"max_attempts default", cfg.API.MaxAttempts, 3},
		{"retry_delay default", cfg.API.RetryDelaySeconds, 5},
		{"tariff_name", cfg.API.TariffName, "home_dynamic"},
		{"signal_date default", cfg.API.SignalDate, "last"},
		{"db host default", cfg.Database.Host, "localhost"},
		{"db port default", cfg.Database.Port, 5432},
		{"dsn", cfg.Database.DSN(), "postgres://etl:pw@localhost:5432/energy?sslmode=disable"},
		{"poll_interval", cfg.ETL.PollIntervalSeconds, 120},
		{"cycle_timeout", cfg.ETL.CycleTimeoutSeconds, 60},
		{"prometheus", cfg.Metrics.PrometheusEnabled, true},
		{"prometheus port default", cfg.Metrics.PrometheusPort, ":2112"},
		{"mqtt disabled", cfg.MQTT.Enabled, false},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `api:
  base_url: "https://api.example.com"
  client_id: "cid"
  client_secret: "shh"
database:
  user: "etl"
  name: "energy"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GS_DATABASE__PASSWORD", "from-env")
	t.Setenv("GS_API__CLIENT_SECRET", "rotated")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Database.Password != "from-env" {
		t.Errorf("database password not overridden: %q", cfg.Database.Password)
	}
	if cfg.API.ClientSecret != "rotated" {
		t.Errorf("client secret not overridden: %q", cfg.API.ClientSecret)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"missing api": `database:
  user: "etl"
  name: "energy"
`,
		"missing database": `api:
  base_url: "https://api.example.com"
  client_id: "cid"
  client_secret: "shh"
`,
		"timeout exceeds interval": `api:
  base_url: "https://api.example.com"
  client_id: "cid"
  client_secret: "shh"
database:
  user: "etl"
  name: "energy"
etl:
  poll_interval_seconds: 60
  cycle_timeout_seconds: 120
`,
	}
	for name, data := range cases {
		path := filepath.Join(dir, "config.yaml")
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
