// Package commands implements the discovery CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/angangwa/migration-agent/pkg/config"
	"github.com/angangwa/migration-agent/pkg/discovery/analyzer"
	"github.com/angangwa/migration-agent/pkg/discovery/service"
	"github.com/angangwa/migration-agent/pkg/discovery/storage"
	"github.com/angangwa/migration-agent/pkg/observability"
	"github.com/angangwa/migration-agent/pkg/version"
)

const serviceName = "migration-agent"

// runtime bundles the wired collaborators behind every subcommand.
type runtime struct {
	cfg       *config.Config
	providers observability.Providers
	store     *storage.Store
	service   *service.Service
	metrics   *observability.REDMetrics
}

// runtimeOptions adjusts construction per subcommand.
type runtimeOptions struct {
	// configPath is the explicit config file path; empty uses search paths.
	configPath string

	// reposPath overrides the configured repositories directory when set.
	reposPath string

	// workers overrides the configured scan worker count when positive.
	workers int

	// progress receives bulk-scan progress lines when true.
	progress bool

	// logJSON forces JSON logs regardless of config (stdio protocol modes).
	logJSON bool
}

// newRuntime loads configuration, initializes observability, and wires the
// storage, analyzer, and service layers.
func newRuntime(opts runtimeOptions) (*runtime, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if opts.reposPath != "" {
		cfg.Discovery.ReposPath = opts.reposPath
	}

	if opts.workers > 0 {
		cfg.Scan.Workers = opts.workers
	}

	providers, err := observability.Init(observability.Config{
		ServiceName:    serviceName,
		ServiceVersion: version.Version,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure:   cfg.Telemetry.OTLPInsecure,
		SampleRatio:    cfg.Telemetry.SampleRatio,
		LogLevel:       observability.ParseLogLevel(cfg.Logging.Level),
		LogJSON:        opts.logJSON || cfg.Logging.Format == "json",
	})
	if err != nil {
		return nil, err
	}

	red, redErr := observability.NewREDMetrics(providers.Meter)
	if redErr != nil {
		return nil, redErr
	}

	sizeCeiling, ceilingErr := cfg.TextFileSizeCeilingBytes()
	if ceilingErr != nil {
		return nil, ceilingErr
	}

	var extraPatterns []analyzer.FrameworkPattern

	if cfg.Discovery.PatternsFile != "" {
		extraPatterns, err = analyzer.LoadPatternsFile(cfg.Discovery.PatternsFile)
		if err != nil {
			return nil, fmt.Errorf("load patterns file: %w", err)
		}
	}

	store, storeErr := storage.New(cfg.Discovery.StorageDir, cfg.Discovery.StateFile, providers.Logger)
	if storeErr != nil {
		return nil, storeErr
	}

	var progress analyzer.ProgressFunc
	if opts.progress {
		progress = printProgress
	}

	svc, svcErr := service.New(service.Config{
		ReposPath: cfg.Discovery.ReposPath,
		Store:     store,
		Analyzer: analyzer.New(cfg.Discovery.ReposPath, analyzer.Options{
			Logger:        providers.Logger,
			MaxFiles:      cfg.Scan.MaxFilesPerRepo,
			SizeCeiling:   sizeCeiling,
			ExtraPatterns: extraPatterns,
		}),
		Workers:  cfg.Scan.Workers,
		Logger:   providers.Logger,
		Progress: progress,
	})
	if svcErr != nil {
		return nil, svcErr
	}

	return &runtime{
		cfg:       cfg,
		providers: providers,
		store:     store,
		service:   svc,
		metrics:   red,
	}, nil
}

// Close flushes telemetry. Call before process exit.
func (r *runtime) Close(ctx context.Context) {
	shutdownErr := r.providers.Shutdown(ctx)
	if shutdownErr != nil {
		r.providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
	}
}

// printProgress renders one bulk-scan progress line to stderr.
func printProgress(completed, total int, repoName string) {
	line := analyzer.FormatProgressMessage(completed, total, repoName)

	if color.NoColor {
		fmt.Fprintln(os.Stderr, line)

		return
	}

	color.New(color.FgCyan).Fprintln(os.Stderr, line)
}
