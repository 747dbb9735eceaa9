package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhcgn/emltouch/filter"
	"github.com/dhcgn/emltouch/header"
	"github.com/dhcgn/emltouch/walker"
)

// LogLevelEnv overrides the default of --log-level when the flag is not set.
const LogLevelEnv = "EMLTOUCH_LOG_LEVEL"

var ErrPathMissing = errors.New("path does not exist")

// Config captures all command-line options required for a run.
type Config struct {
	Path           string
	Pattern        string
	Recursive      bool
	DryRun         bool
	Verbose        bool
	LogLevel       string
	LogDir         string
	MaxHeaderBytes int64
	IncludeHeader  []string
	ExcludeHeader  []string
}

// RegisterFlags attaches all CLI flags to the provided command.
func RegisterFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	flags.BoolP("dry-run", "n", false, "Show what would be done without changing any file")
	flags.BoolP("recursive", "r", false, "Process directories recursively")
	flags.BoolP("verbose", "v", false, "Print one line per file")
	flags.String("pattern", walker.DefaultPattern, "File name pattern to match (case-insensitive glob)")
	flags.String("log-level", "warn", "Logging level: debug, info, warn, error (falls back to "+LogLevelEnv+" env var)")
	flags.String("log-dir", "", "Also write logs to a timestamped file in this directory")
	flags.Int64("max-header-bytes", header.DefaultMaxBytes, "Maximum number of bytes read from each file when looking for headers")
	flags.StringArray("include-header", nil, "Regex allow-list applied to message headers (mutually exclusive with --exclude-header)")
	flags.StringArray("exclude-header", nil, "Regex block-list applied to message headers (mutually exclusive with --include-header)")

	return nil
}

// RegisterWalkFlags attaches the subset of flags that select files. Used by
// subcommands that walk the same way as the root command.
func RegisterWalkFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolP("recursive", "r", false, "Process directories recursively")
	flags.String("pattern", walker.DefaultPattern, "File name pattern to match (case-insensitive glob)")
	flags.Int64("max-header-bytes", header.DefaultMaxBytes, "Maximum number of bytes read from each file when looking for headers")
}

// LoadConfig converts the parsed Cobra flags and positional arguments into a
// Config struct with validation.
func LoadConfig(cmd *cobra.Command, args []string) (Config, error) {
	flags := cmd.Flags()

	path := "."
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		path = args[0]
	}

	pattern, err := flags.GetString("pattern")
	if err != nil {
		return Config{}, err
	}
	recursive, err := flags.GetBool("recursive")
	if err != nil {
		return Config{}, err
	}
	maxHeaderBytes, err := flags.GetInt64("max-header-bytes")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Path:           filepath.Clean(path),
		Pattern:        pattern,
		Recursive:      recursive,
		MaxHeaderBytes: maxHeaderBytes,
		LogLevel:       "warn",
	}
	if strings.TrimSpace(cfg.Pattern) == "" {
		cfg.Pattern = walker.DefaultPattern
	}

	// Subcommands only register the walk flags.
	if flags.Lookup("dry-run") != nil {
		if cfg.DryRun, err = flags.GetBool("dry-run"); err != nil {
			return Config{}, err
		}
		if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
			return Config{}, err
		}
		if cfg.LogDir, err = flags.GetString("log-dir"); err != nil {
			return Config{}, err
		}
		if cfg.IncludeHeader, err = flags.GetStringArray("include-header"); err != nil {
			return Config{}, err
		}
		if cfg.ExcludeHeader, err = flags.GetStringArray("exclude-header"); err != nil {
			return Config{}, err
		}
		logLevel, err := flags.GetString("log-level")
		if err != nil {
			return Config{}, err
		}
		if !flags.Changed("log-level") {
			if env := os.Getenv(LogLevelEnv); env != "" {
				logLevel = env
			}
		}
		cfg.LogLevel = normalizeLevel(logLevel)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func normalizeLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	return level
}

func validateConfig(cfg Config) error {
	if _, err := os.Stat(cfg.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrPathMissing, cfg.Path)
		}
		return fmt.Errorf("stat %s: %w", cfg.Path, err)
	}
	if err := walker.ValidatePattern(cfg.Pattern); err != nil {
		return fmt.Errorf("--pattern: %w", err)
	}
	if cfg.MaxHeaderBytes <= 0 {
		return fmt.Errorf("--max-header-bytes must be positive")
	}
	if _, err := filter.New(filter.Options{IncludeHeader: cfg.IncludeHeader, ExcludeHeader: cfg.ExcludeHeader}); err != nil {
		return fmt.Errorf("header filter: %w", err)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %s", cfg.LogLevel)
	}

	return nil
}
