package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/moolen/laneview/internal/config"
	"github.com/moolen/laneview/internal/logging"
	"github.com/moolen/laneview/internal/tracing"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

// globalOptions holds flags shared by every subcommand and the state built from them
type globalOptions struct {
	logLevelFlags   []string // Supports multiple --log-level flags
	configPath      string
	tracingEndpoint string

	cfg     *config.Config
	tracing *tracing.Provider
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "laneview",
		Short: "laneview - resource swimlanes and health timelines from Kubernetes events",
		Long: `laneview groups a flat stream of Kubernetes resource events into a forest of
resource lanes (owner, topology and application label correlation) and
reconstructs the health history of each lane over a time window.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// results go to stdout, logs never do
			logging.SetOutput(cmd.ErrOrStderr())
			return opts.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.shutdown()
		},
	}

	// Supports per-package log levels: --log-level debug --log-level hierarchy=debug
	rootCmd.PersistentFlags().StringSliceVar(&opts.logLevelFlags, "log-level",
		[]string{},
		"Log level for packages. Use 'default=level' for default, or 'package.name=level' for per-package.\n"+
			"Examples: --log-level debug (all), --log-level hierarchy=debug --log-level engine=warn")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.tracingEndpoint, "tracing-endpoint", "",
		"OTLP gRPC endpoint; enables tracing (overrides tracing.endpoint)")

	rootCmd.AddCommand(newLanesCmd(opts))
	rootCmd.AddCommand(newHealthCmd(opts))
	rootCmd.AddCommand(newPaletteCmd(opts))
	rootCmd.AddCommand(newConvertCmd(opts))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// setup loads configuration, then initializes logging and tracing from it.
// Log level flags override the configured levels.
func (o *globalOptions) setup(ctx context.Context) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.tracingEndpoint != "" {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Endpoint = o.tracingEndpoint
	}
	o.cfg = cfg

	flags := make([]string, 0, len(cfg.Log.Packages)+1+len(o.logLevelFlags))
	flags = append(flags, cfg.Log.Level)
	for pkg, level := range cfg.Log.Packages {
		flags = append(flags, pkg+"="+level)
	}
	flags = append(flags, o.logLevelFlags...)
	if err := setupLog(flags); err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	provider, err := tracing.NewProvider(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		TLSCAPath:   cfg.Tracing.TLSCAPath,
		TLSInsecure: cfg.Tracing.TLSInsecure,
		Version:     Version,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	o.tracing = provider
	return nil
}

func (o *globalOptions) shutdown() error {
	if o.tracing == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return o.tracing.Shutdown(ctx)
}

// setupLog initializes the logging system with parsed log level flags
// Priority: CLI flags > configuration file > LOG_LEVEL_* environment
func setupLog(flags []string) error {
	defaultLevel, packageLevels, err := parseLogLevelFlags(flags)
	if err != nil {
		return err
	}
	return logging.Initialize(defaultLevel, packageLevels)
}

// parseLogLevelFlags parses CLI flags and environment variables
// Priority: CLI flags > Environment variables
//
// CLI format: ["debug"], ["default=info", "hierarchy=debug"], or ["info"]
// Env vars: LOG_LEVEL_ENGINE=debug (package name uppercased, dots to underscores)
//
// Returns: (defaultLevel, packageLevels map, error)
func parseLogLevelFlags(flags []string) (string, map[string]string, error) {
	result := make(map[string]string)

	for _, envPair := range os.Environ() {
		if strings.HasPrefix(envPair, "LOG_LEVEL_") {
			parts := strings.SplitN(envPair, "=", 2)
			if len(parts) != 2 {
				continue
			}
			result[convertEnvKeyToPackageName(parts[0])] = parts[1]
		}
	}

	for _, flag := range flags {
		if flag == "" {
			continue
		}
		if !strings.Contains(flag, "=") {
			result["default"] = flag
			continue
		}
		parts := strings.SplitN(flag, "=", 2)
		result[parts[0]] = parts[1]
	}

	defaultLevel := "info"
	if level, exists := result["default"]; exists {
		defaultLevel = level
		delete(result, "default")
	}

	if err := validateLogLevel(defaultLevel); err != nil {
		return "", nil, err
	}
	for pkg, level := range result {
		if err := validateLogLevel(level); err != nil {
			return "", nil, fmt.Errorf("invalid log level for package %q: %v", pkg, err)
		}
	}

	return defaultLevel, result, nil
}

// convertEnvKeyToPackageName converts LOG_LEVEL_EVENT_QUEUE -> event.queue
func convertEnvKeyToPackageName(envKey string) string {
	name := strings.TrimPrefix(envKey, "LOG_LEVEL_")
	return strings.ToLower(strings.ReplaceAll(name, "_", "."))
}

// validateLogLevel checks if a level string is valid
func validateLogLevel(level string) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}
	if !validLevels[strings.ToLower(level)] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error, fatal)", level)
	}
	return nil
}
