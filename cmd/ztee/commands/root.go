// Package commands implements the ztee command line.
package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/ztee/cmd/ztee/commands/config"
	"github.com/marmos91/ztee/internal/bytesize"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// Transfer flags. They override the configuration only when set.
var (
	verbose     bool
	allCaches   bool
	windowSize  bytesize.ByteSize
	relaySize   bytesize.ByteSize
	retryDelay  time.Duration
	maxRetries  int
	statsFormat string
	metricsFile string
)

// rootCmd represents the base command: the tee itself.
var rootCmd = &cobra.Command{
	Use:   "ztee [flags] [FILE...]",
	Short: "ztee - zero-copy tee",
	Long: `ztee copies standard input to standard output and to every FILE,
moving the data inside the kernel with tee(2) and splice(2) instead of
through user-space buffers.

Writeback of file destinations is scheduled in fixed windows and completed
windows are dropped from the page cache, so large transfers do not evict
the rest of the system's cache.

Examples:
  # Duplicate a stream to two files
  producer | ztee a.bin b.bin > c.bin

  # Manage the cache of every file destination and print a summary
  ztee --all-caches --stats table backup.img < /dev/sdb > copy.img

  # Override the window size through the environment
  ZTEE_TEE_WINDOW_SIZE=32Mi ztee out.bin < in.bin > /dev/null

Use "ztee [command] --help" for more information about a command.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTee,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/ztee/config.yaml)")

	flags := rootCmd.Flags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Verbose diagnostics on stderr (log level DEBUG)")
	flags.BoolVarP(&allCaches, "all-caches", "a", false, "Manage the page cache of every file destination, not only stdout")
	flags.Var(&windowSize, "window", "Writeback and eviction window (default 8Mi)")
	flags.Var(&relaySize, "relay-size", "Capacity requested for every relay pipe (default 1Mi)")
	flags.DurationVar(&retryDelay, "retry-delay", 0, "Pause after a destination reported not-ready (default 1ms)")
	flags.IntVar(&maxRetries, "max-retries", 0, "Consecutive not-ready retries allowed per destination (0 = unlimited)")
	flags.StringVar(&statsFormat, "stats", "", "Print a transfer summary to stderr (table|json|yaml)")
	flags.StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the transfer")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(config.Cmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}
