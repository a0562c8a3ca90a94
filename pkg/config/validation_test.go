package config

import (
	"strings"
	"testing"
)

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "Logging.Level") {
		t.Errorf("Expected field path in error, got: %v", err)
	}
}

func TestValidate_LogsOnStdoutRefused(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Output = "stdout"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for logs on stdout")
	}
}

func TestValidate_WindowTooSmall(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Tee.WindowSize = 512

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for tiny window")
	}
	if !strings.Contains(err.Error(), "gte") {
		t.Errorf("Expected 'gte' validation error, got: %v", err)
	}
}

func TestValidate_NegativeRetries(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Tee.MaxRetries = -1

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for negative max_retries")
	}
}

func TestValidate_MetricsWithoutTextfile(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Enabled = true

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for metrics without textfile")
	}
	if !strings.Contains(err.Error(), "required_if") {
		t.Errorf("Expected 'required_if' validation error, got: %v", err)
	}
}

func TestValidate_TelemetrySampleRate(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.SampleRate = 1.5

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for sample rate > 1")
	}
}

func TestValidate_UnknownProfileType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.Profiling.ProfileTypes = []string{"cpu", "heap"}

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for unknown profile type")
	}
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"
	cfg.Tee.MaxRetries = -3

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation errors")
	}
	if lines := strings.Split(err.Error(), "\n"); len(lines) != 2 {
		t.Errorf("Expected 2 violations, got %d: %v", len(lines), err)
	}
}
