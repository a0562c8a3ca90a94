package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/ztee/internal/bytesize"
	"github.com/marmos91/ztee/internal/cli/output"
	"github.com/marmos91/ztee/pkg/config"
)

// pipeMaxSizePath holds the largest relay capacity an unprivileged process
// may request.
var pipeMaxSizePath = "/proc/sys/fs/pipe-max-size"

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the ztee configuration file.

Checks for syntax errors, missing required fields, and invalid values.
Environment overrides (ZTEE_*) are applied before validation.

Examples:
  # Validate default config
  ztee config validate

  # Validate specific config file
  ztee config validate --config /etc/ztee/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}
	if _, err := os.Stat(displayPath); err != nil {
		displayPath += " (not found, defaults in use)"
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if warnings := configWarnings(cfg); len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintln(out, "\nConfiguration summary:")
	return output.SimpleTable(out, configSummary(cfg))
}

// configWarnings reports settings that are valid but probably not intended.
func configWarnings(cfg *config.Config) []string {
	var warnings []string

	pageSize := bytesize.ByteSize(os.Getpagesize())
	if cfg.Tee.WindowSize%pageSize != 0 {
		warnings = append(warnings, fmt.Sprintf("window_size %s is not a multiple of the page size (%d)", cfg.Tee.WindowSize.Exact(), pageSize))
	}

	if cfg.Tee.WindowSize < cfg.Tee.RelaySize {
		warnings = append(warnings, fmt.Sprintf("window_size %s is smaller than relay_size %s", cfg.Tee.WindowSize.Exact(), cfg.Tee.RelaySize.Exact()))
	}

	if limit, ok := pipeMaxSize(); ok && cfg.Tee.RelaySize > limit {
		warnings = append(warnings, fmt.Sprintf("relay_size %s exceeds %s (%s), relays keep the kernel default capacity without CAP_SYS_RESOURCE", cfg.Tee.RelaySize.Exact(), pipeMaxSizePath, limit.Exact()))
	}

	return warnings
}

func pipeMaxSize() (bytesize.ByteSize, bool) {
	data, err := os.ReadFile(pipeMaxSizePath)
	if err != nil {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, false
	}
	return bytesize.ByteSize(n), true
}

func configSummary(cfg *config.Config) [][2]string {
	retries := "unlimited"
	if cfg.Tee.MaxRetries > 0 {
		retries = strconv.Itoa(cfg.Tee.MaxRetries)
	}

	metrics := "disabled"
	if cfg.Metrics.Enabled {
		metrics = cfg.Metrics.Textfile
	}

	tracing := "disabled"
	if cfg.Telemetry.Enabled {
		tracing = cfg.Telemetry.Endpoint
	}

	profiling := "disabled"
	if cfg.Telemetry.Profiling.Enabled {
		profiling = cfg.Telemetry.Profiling.Endpoint
	}

	return [][2]string{
		{"Log level", cfg.Logging.Level},
		{"Log output", cfg.Logging.Output},
		{"Window size", cfg.Tee.WindowSize.Exact()},
		{"Relay size", cfg.Tee.RelaySize.Exact()},
		{"Retry delay", cfg.Tee.RetryDelay.String()},
		{"Max retries", retries},
		{"Manage all caches", strconv.FormatBool(cfg.Tee.ManageAllCaches)},
		{"Metrics", metrics},
		{"Tracing", tracing},
		{"Profiling", profiling},
	}
}
