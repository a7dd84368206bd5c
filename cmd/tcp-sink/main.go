package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gitrgoliveira/tcp-sink/internal/config"
	"github.com/gitrgoliveira/tcp-sink/internal/logger"
	"github.com/gitrgoliveira/tcp-sink/internal/mailbox"
	"github.com/gitrgoliveira/tcp-sink/internal/service"
	"github.com/gitrgoliveira/tcp-sink/internal/version"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
	logOutput  string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tcp-sink",
		Short: "Single-connection TCP sink with signal-driven reload",
		Long: `A TCP listener that serves one peer at a time, reads and discards
whatever it sends, and reloads its configuration on SIGHUP without
dropping the active connection.

Additional connections are closed as soon as they are accepted.`,
		Version:       version.FullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.hcl", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "Log level (debug, info, error)")
	rootCmd.PersistentFlags().StringVar(&logOutput, "log-output", "stdout", "Log output (stdout, stderr, or file path)")

	// Add subcommands
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(monitorCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// serveCmd runs the listener service
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the listener until a shutdown signal",
		Long: `Binds the configured address and serves one connection at a time.
Send SIGHUP to reload the configuration, SIGINT or SIGTERM to stop.`,
		Example: `  # Serve with the default config.hcl
  tcp-sink serve

  # Serve with a specific configuration
  tcp-sink serve -c /etc/tcp-sink/config.hcl

  # Reload the configuration of a running instance
  kill -HUP $(pidof tcp-sink)`,
		RunE: runServe,
	}
	return cmd
}

// checkCmd validates a configuration file
func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a configuration file",
		Long:  `Loads and validates the configuration file, then prints the effective settings.`,
		Example: `  # Check the default config.hcl
  tcp-sink check

  # Check a file before sending SIGHUP
  tcp-sink check -c /etc/tcp-sink/config.hcl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, configFile)
		},
	}
	return cmd
}

// monitorCmd runs the single-slot producer/consumer demo
func monitorCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the single-slot producer/consumer monitor",
		Long: `Runs a producer that offers an increasing counter every interval and a
consumer that reports each value. A value offered while the previous one is
still pending is dropped.`,
		Example: `  # One event per second until Ctrl+C
  tcp-sink monitor

  # Faster ticks with debug logging to see skipped offers
  tcp-sink monitor --interval 100ms -l debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runMonitor(ctx, interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Producer tick interval")

	return cmd
}

// versionCmd prints version information
func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Example: `  tcp-sink version
  tcp-sink version --short`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if short {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Short())
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.FullVersion())
			return err
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print only major.minor.patch")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	// Create signal handler
	sigChan := setupSignalHandler()
	defer signal.Stop(sigChan)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Create and start the service
	svc, err := service.New(ctx, &service.Config{
		ConfigFile: configFile,
	})
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	// Run the service
	return svc.Run(ctx, sigChan, isReloadSignal, isShutdownSignal)
}

func runCheck(cmd *cobra.Command, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration %s is valid\n", path)
	_, _ = fmt.Fprintf(out, "  listen:       %s (backlog %d, reuse_addr %t)\n",
		cfg.Listener.ListenAddress(), cfg.Listener.Backlog, cfg.Listener.ReuseAddress())
	if !cfg.Listener.BindTimeout.IsZero() {
		_, _ = fmt.Fprintf(out, "  bind_timeout: %s\n", cfg.Listener.BindTimeout)
	}
	_, _ = fmt.Fprintf(out, "  buffer_size:  %s\n", config.FormatSize(cfg.Ingest.BufferSize))
	_, _ = fmt.Fprintf(out, "  watch_config: %t\n", cfg.Reload.WatchConfig)
	_, _ = fmt.Fprintf(out, "  logging:      %s, %s, %s\n", cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	return nil
}

func runMonitor(ctx context.Context, interval time.Duration) error {
	// Initialize logger (use flags, not config file)
	log, err := logger.New(logLevel, logOutput)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting monitor", "interval", interval)
	return mailbox.RunMonitor(ctx, interval, log)
}
