package config

import (
	"testing"
)

func TestLoadWithArgs_Defaults(t *testing.T) {
	cfg, err := LoadWithArgs(nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cfg.Server.Port != "8080" || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("listen address = %s:%s, want 0.0.0.0:8080", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Receipt.PollInterval != 3 || cfg.Receipt.PollDeadline != 120 {
		t.Errorf("receipt polling = %d/%d, want 3/120", cfg.Receipt.PollInterval, cfg.Receipt.PollDeadline)
	}
	if cfg.Session.RedisURL != "" {
		t.Errorf("expected in-memory sessions by default, got %q", cfg.Session.RedisURL)
	}
}

func TestLoadWithArgs_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9000")

	cfg, err := LoadWithArgs([]string{"--port", "9100"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("host = %s, want value from HOST", cfg.Server.Host)
	}
	if cfg.Server.Port != "9100" {
		t.Errorf("port = %s, want value from --port", cfg.Server.Port)
	}
}

func TestLoadWithArgs_Env(t *testing.T) {
	t.Setenv("API_KEYS", "one, two,,")
	t.Setenv("UPSTREAM_TIMEOUT", "4")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com")

	cfg, err := LoadWithArgs(nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(cfg.Auth.APIKeys) != 2 || cfg.Auth.APIKeys[1] != "two" {
		t.Errorf("api keys = %v, want [one two]", cfg.Auth.APIKeys)
	}
	if got := cfg.SubmitLockTTL().Seconds(); got != 8 {
		t.Errorf("submit lock ttl = %vs, want 8s", got)
	}
	if cfg.CORS.AllowedOrigins[0] != "https://shop.example.com" {
		t.Errorf("cors origins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadWithArgs_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "verbose"}},
		{name: "relative upstream", env: map[string]string{"UPSTREAM_BASE_URL": "/api"}},
		{name: "deadline shorter than interval", env: map[string]string{"RECEIPT_POLL_INTERVAL": "10", "RECEIPT_POLL_DEADLINE": "5"}},
		{name: "non-numeric port flag", args: []string{"--port", "http"}},
		{name: "unknown flag", args: []string{"--verbose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadWithArgs(tt.args); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
