package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhcgn/emltouch/filter"
	"github.com/dhcgn/emltouch/header"
	"github.com/dhcgn/emltouch/walker"
)

func rootCommand(t *testing.T, flags ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "emltouch"}
	require.NoError(t, RegisterFlags(cmd))
	require.NoError(t, cmd.ParseFlags(flags))
	return cmd
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv(LogLevelEnv, "")
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig(rootCommand(t), nil)
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Path)
	assert.Equal(t, walker.DefaultPattern, cfg.Pattern)
	assert.False(t, cfg.Recursive)
	assert.False(t, cfg.DryRun)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, header.DefaultMaxBytes, cfg.MaxHeaderBytes)
}

func TestLoadConfig_Flags(t *testing.T) {
	dir := t.TempDir()
	cmd := rootCommand(t,
		"-n", "-r", "-v",
		"--pattern", "*.msg",
		"--log-level", "DEBUG",
		"--max-header-bytes", "1024",
		"--include-header", "From: .*@example.com",
		"--include-header", "List-Id: nuts",
	)

	cfg, err := LoadConfig(cmd, []string{dir + string(filepath.Separator)})
	require.NoError(t, err)

	assert.Equal(t, filepath.Clean(dir), cfg.Path)
	assert.Equal(t, "*.msg", cfg.Pattern)
	assert.True(t, cfg.DryRun)
	assert.True(t, cfg.Recursive)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, int64(1024), cfg.MaxHeaderBytes)
	assert.Equal(t, []string{"From: .*@example.com", "List-Id: nuts"}, cfg.IncludeHeader)
}

func TestLoadConfig_LogLevelEnv(t *testing.T) {
	dir := t.TempDir()

	t.Setenv(LogLevelEnv, "info")
	cfg, err := LoadConfig(rootCommand(t), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)

	cfg, err = LoadConfig(rootCommand(t, "--log-level", "error"), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel, "flag wins over environment")

	t.Setenv(LogLevelEnv, "warning")
	cfg, err = LoadConfig(rootCommand(t), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(LogLevelEnv, "")

	_, err := LoadConfig(rootCommand(t), []string{filepath.Join(dir, "missing")})
	assert.ErrorIs(t, err, ErrPathMissing)

	tests := map[string][]string{
		"bad pattern":   {"--pattern", "[a-"},
		"zero limit":    {"--max-header-bytes", "0"},
		"bad log level": {"--log-level", "loud"},
		"bad regex":     {"--exclude-header", "[unclosed"},
	}
	for name, flags := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(rootCommand(t, flags...), []string{dir})
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_FilterConflict(t *testing.T) {
	t.Setenv(LogLevelEnv, "")
	cmd := rootCommand(t, "--include-header", "a", "--exclude-header", "b")

	_, err := LoadConfig(cmd, []string{t.TempDir()})
	assert.ErrorIs(t, err, filter.ErrModeConflict)
}

func TestLoadConfig_WalkFlagsOnly(t *testing.T) {
	t.Setenv(LogLevelEnv, "debug")
	cmd := &cobra.Command{Use: "date-stats"}
	RegisterWalkFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"-r", "--pattern", ""}))

	cfg, err := LoadConfig(cmd, []string{t.TempDir()})
	require.NoError(t, err)
	assert.True(t, cfg.Recursive)
	assert.Equal(t, walker.DefaultPattern, cfg.Pattern)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, "warn", cfg.LogLevel)
}
