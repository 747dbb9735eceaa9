package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhcgn/emltouch/cmd"
	"github.com/dhcgn/emltouch/config"
	"github.com/dhcgn/emltouch/dateparse"
	"github.com/dhcgn/emltouch/filter"
	"github.com/dhcgn/emltouch/progress"
	"github.com/dhcgn/emltouch/runner"
	"github.com/dhcgn/emltouch/walker"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "emltouch [PATH]",
		Short:         "Set the file times of .eml messages from their Date header",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(c, args)
			if err != nil {
				return err
			}

			logger, cleanup, err := setupLogger(cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = cleanup()
			}()

			slog.SetDefault(logger)
			logger.Info("starting emltouch", "path", cfg.Path, "pattern", cfg.Pattern, "recursive", cfg.Recursive, "dryRun", cfg.DryRun)

			return run(c.Context(), cfg, logger)
		},
	}

	if err := config.RegisterFlags(rootCmd); err != nil {
		fmt.Fprintf(os.Stderr, "failed to register CLI flags: %v\n", err)
		os.Exit(1)
	}
	rootCmd.AddCommand(cmd.NewDateStatsCommand(), cmd.NewParseCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	files, err := walker.Find(walker.Options{
		Root:      cfg.Path,
		Pattern:   cfg.Pattern,
		Recursive: cfg.Recursive,
	}, logger)
	if err != nil {
		return fmt.Errorf("walker.Find: %w", err)
	}

	headerFilter, err := filter.New(filter.Options{
		IncludeHeader: cfg.IncludeHeader,
		ExcludeHeader: cfg.ExcludeHeader,
	})
	if err != nil {
		return fmt.Errorf("filter.New: %w", err)
	}

	console := progress.New(os.Stdout, cfg.Verbose, progress.IsTerminal(os.Stdout))
	r := runner.New(runner.Options{
		DryRun:         cfg.DryRun,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
		Filter:         headerFilter,
		Parser:         dateparse.New(time.Local),
	}, console, logger)

	summary, err := r.Run(ctx, files)
	if err != nil {
		return fmt.Errorf("interrupted after %d of %d file(s): %w", summary.Total+summary.Filtered, len(files), err)
	}
	return nil
}

func setupLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)

	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}

	opts := &slog.HandlerOptions{Level: level}
	cleanup := func() error { return nil }

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, cleanup, err
		}

		logFilePath := filepath.Join(cfg.LogDir, fmt.Sprintf("emltouch-%s.log", time.Now().Format("20060102T150405")))
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, err
		}

		handler := slog.NewTextHandler(io.MultiWriter(os.Stderr, file), opts)
		cleanup = func() error {
			return file.Close()
		}
		return slog.New(handler), cleanup, nil
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return slog.New(handler), cleanup, nil
}
