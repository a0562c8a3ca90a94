package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Expected default output 'stderr', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_Tee(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Tee.WindowSize != DefaultWindowSize {
		t.Errorf("Expected window size %v, got %v", DefaultWindowSize, cfg.Tee.WindowSize)
	}
	if cfg.Tee.RelaySize != DefaultRelaySize {
		t.Errorf("Expected relay size %v, got %v", DefaultRelaySize, cfg.Tee.RelaySize)
	}
	if cfg.Tee.RetryDelay != time.Millisecond {
		t.Errorf("Expected retry delay 1ms, got %v", cfg.Tee.RetryDelay)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "warn", Format: "json", Output: "/var/log/ztee.log"},
		Tee:     TeeConfig{WindowSize: 1 << 30, RetryDelay: time.Second, MaxRetries: 7},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "/var/log/ztee.log" {
		t.Errorf("Expected output preserved, got %q", cfg.Logging.Output)
	}
	if cfg.Tee.WindowSize != 1<<30 {
		t.Errorf("Expected window size preserved, got %v", cfg.Tee.WindowSize)
	}
	if cfg.Tee.RetryDelay != time.Second {
		t.Errorf("Expected retry delay preserved, got %v", cfg.Tee.RetryDelay)
	}
	if cfg.Tee.MaxRetries != 7 {
		t.Errorf("Expected max retries preserved, got %d", cfg.Tee.MaxRetries)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Errorf("Default config should be valid, got: %v", err)
	}
}
