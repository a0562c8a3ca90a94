package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/ztee/internal/cli/output"
	"github.com/marmos91/ztee/internal/logger"
	"github.com/marmos91/ztee/pkg/config"
	"github.com/marmos91/ztee/pkg/metrics"
	"github.com/marmos91/ztee/pkg/tee"

	// Import prometheus metrics to register init() functions
	_ "github.com/marmos91/ztee/pkg/metrics/prometheus"
)

// Source and primary destination descriptors. Tests point them at
// temporary files.
var (
	stdinFd  = 0
	stdoutFd = 1
)

func runTee(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	var format output.Format
	if statsFormat != "" {
		if format, err = output.ParseFormat(statsFormat); err != nil {
			return fmt.Errorf("--stats: %w", err)
		}
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := initObservability(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	opts := engineOptions(cfg)
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		opts.Metrics = metrics.NewTeeMetrics()
	}

	// Refuse before any FILE is opened, opening truncates.
	src, primary, err := classifyStandard()
	if err != nil {
		return err
	}
	if err := tee.CheckPrimary(primary); err != nil {
		return err
	}

	files, err := openDestinations(args)
	if err != nil {
		return err
	}

	stats, runErr := transfer(ctx, src, primary, files, opts)

	if cfg.Metrics.Enabled {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Error("Failed to write metrics textfile", logger.Err(err))
			runErr = errors.Join(runErr, err)
		}
	}

	if statsFormat != "" && stats.RunID != "" {
		if err := output.NewPrinter(cmd.ErrOrStderr(), format, false).Print(stats); err != nil {
			logger.Warn("Failed to print transfer summary", logger.Err(err))
		}
	}

	if err := closeFiles(files); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// classifyStandard classifies the source and the primary output.
func classifyStandard() (src, primary tee.Endpoint, err error) {
	if src, err = tee.NewEndpoint("stdin", stdinFd); err != nil {
		return tee.Endpoint{}, tee.Endpoint{}, err
	}
	if primary, err = tee.NewEndpoint("stdout", stdoutFd); err != nil {
		return tee.Endpoint{}, tee.Endpoint{}, err
	}
	return src, primary, nil
}

// transfer classifies the opened FILE destinations and runs one engine over
// every descriptor.
func transfer(ctx context.Context, src, primary tee.Endpoint, files []*os.File, opts tee.Options) (tee.Stats, error) {
	dsts := make([]tee.Endpoint, 0, len(files)+1)
	dsts = append(dsts, primary)

	for _, f := range files {
		ep, err := tee.NewEndpoint(f.Name(), int(f.Fd()))
		if err != nil {
			return tee.Stats{}, err
		}
		dsts = append(dsts, ep)
	}

	traceEndpoints(src, dsts)

	engine, err := tee.New(src, dsts, opts)
	if err != nil {
		return tee.Stats{}, err
	}
	return engine.Run(ctx)
}

// applyFlags lets explicitly set flags win over the loaded configuration and
// validates the result again.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if verbose {
		cfg.Logging.Level = "DEBUG"
	}
	if flags.Changed("all-caches") {
		cfg.Tee.ManageAllCaches = allCaches
	}
	if flags.Changed("window") {
		cfg.Tee.WindowSize = windowSize
	}
	if flags.Changed("relay-size") {
		cfg.Tee.RelaySize = relaySize
	}
	if flags.Changed("retry-delay") {
		cfg.Tee.RetryDelay = retryDelay
	}
	if flags.Changed("max-retries") {
		cfg.Tee.MaxRetries = maxRetries
	}
	if metricsFile != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Textfile = metricsFile
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

func engineOptions(cfg *config.Config) tee.Options {
	opts := tee.DefaultOptions()
	opts.Verbose = logger.IsDebug()
	opts.ManageAllCaches = cfg.Tee.ManageAllCaches
	opts.WindowSize = cfg.Tee.WindowSize.Int64()
	opts.RelaySize = cfg.Tee.RelaySize.Int()
	opts.RetryDelay = cfg.Tee.RetryDelay
	opts.MaxRetries = cfg.Tee.MaxRetries
	return opts
}

// openDestinations opens every FILE argument for writing, truncating it.
// On failure the files opened so far are closed again.
func openDestinations(paths []string) ([]*os.File, error) {
	files := make([]*os.File, 0, len(paths))
	for _, path := range paths {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			_ = closeFiles(files)
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func closeFiles(files []*os.File) error {
	var errs []error
	for _, f := range files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// traceEndpoints logs how every descriptor was classified.
func traceEndpoints(src tee.Endpoint, dsts []tee.Endpoint) {
	if !logger.IsDebug() {
		return
	}

	logger.Debug(src.Name+" is a "+src.Kind.String(), logger.Fd(src.Fd))
	for i, d := range dsts {
		logger.Debug(d.Name+" is a "+d.Kind.String(),
			logger.Dest(i),
			logger.Fd(d.Fd),
			"append", d.Append,
			logger.Offset(d.Offset))
	}
}
