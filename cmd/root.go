package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/zj-link/internal/bridge"
	"github.com/timvw/zj-link/internal/config"
	"github.com/timvw/zj-link/internal/logging"
	telem "github.com/timvw/zj-link/internal/otel"
	"github.com/timvw/zj-link/internal/project"
	"github.com/timvw/zj-link/internal/zellij"
)

var (
	// Global flags.
	flagZellij     string
	flagSession    string
	flagLogLevel   string
	flagLogFile    string
	flagConfigName string
	flagTheme      string
)

var rootCmd = &cobra.Command{
	Use:   "zj-link",
	Short: "Drive zellij sessions from your editor",
	Long: `zj-link routes editor actions to a zellij session: send selections to
the right tab, (re)start project tasks in their own tabs, and switch
sessions and tabs.

Editors talk to "zj-link serve" over newline-delimited JSON. The other
subcommands run one action from the terminal, using the project config
(.subl-zellij) found above the current directory.

Settings are loaded from .zj-link.yaml, ~/.config/zj-link/config.yaml and
ZJ_LINK_* environment variables; flags override all of them.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagZellij, "zellij", "", "zellij binary (default: zellij from PATH)")
	rootCmd.PersistentFlags().StringVar(&flagSession, "session", "", "zellij session to act on (default: from project config, or the session zj-link runs in)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&flagConfigName, "config-name", "", "project config file name (default: .subl-zellij)")
	rootCmd.PersistentFlags().StringVar(&flagTheme, "theme", "", "picker color theme: dark, light")
}

// app is everything a subcommand needs, built from settings and flags.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	bridge *bridge.Bridge

	logCloser io.Closer
	tel       *telem.Telemetry
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, closer, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	if cfg.ConfigFile != "" {
		logger.Debug("settings loaded", "path", cfg.ConfigFile)
	}

	a := &app{cfg: cfg, logger: logger, logCloser: closer}

	// Wire build version into OTEL service metadata
	telem.Version = Version

	// Initialize OTEL (no-op if no endpoint configured)
	tel, err := telem.Init(ctx, telem.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
	})
	if err != nil {
		logger.Warn("otel init failed", "error", err)
	}
	a.tel = tel

	var metrics *telem.Metrics
	if tel != nil {
		metrics = tel.Metrics
	}

	binary, err := zellij.Detect(cfg.ZellijBinary)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	cli := zellij.NewCLI(zellij.NewExecRunner(binary), logger, metrics)
	a.bridge = bridge.New(cli, project.NewLocator(cfg.ConfigName), logger, metrics)
	return a, nil
}

// applyFlags overrides settings with the flags the user set.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("zellij") {
		cfg.ZellijBinary = flagZellij
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = flagLogFile
	}
	if flags.Changed("config-name") {
		cfg.ConfigName = flagConfigName
	}
	if flags.Changed("theme") {
		cfg.Theme = flagTheme
	}
	if flags.Changed("socket") {
		cfg.Socket = flagSocket
	}
	if flags.Changed("watch") {
		cfg.Watch = flagWatch
	}
}

func (a *app) Close(ctx context.Context) {
	if a.tel != nil {
		a.tel.Shutdown(ctx)
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}
