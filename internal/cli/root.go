// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vishalm/LlamaBot/internal/backend"
	"github.com/vishalm/LlamaBot/internal/config"
	"github.com/vishalm/LlamaBot/internal/logging"
	"github.com/vishalm/LlamaBot/internal/store"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	ConfigPath string
	APIURL     string
	Agent      string
	LogStderr  bool
}

// app is the state a command runs with, built before RunE.
type app struct {
	flags globalFlags

	cfg       *config.Config
	cfgPath   string
	log       logr.Logger
	logCloser io.Closer
	client    *backend.Client
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"), err)
		return 1
	}
	return 0
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{log: logr.Discard()}

	root := &cobra.Command{
		Use:   "llamabot",
		Short: "Terminal client for a LlamaBot agent server",
		Long: `llamabot talks to a LlamaBot agent server: browse conversations,
stream replies from its agents, and chat in a full-screen terminal UI.

Run without a command to open the chat screen.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupColors()
			if skipSetup(cmd) {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.ConfigPath, "config", "", "config file (default ~/.llamabot/config.toml)")
	pf.StringVar(&a.flags.APIURL, "api-url", "", "agent server URL (overrides config)")
	pf.StringVar(&a.flags.Agent, "agent", "", "agent to route messages to (overrides config)")
	pf.BoolVar(&a.flags.LogStderr, "log-stderr", false, "write logs to stderr instead of the log file")

	root.AddCommand(
		newTUICmd(a),
		newAskCmd(a),
		newChatCmd(a),
		newThreadsCmd(a),
		newHistoryCmd(a),
		newAgentsCmd(a),
		newModelsCmd(a),
		newStatusCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// skipSetup reports whether cmd works without a loaded config, so a broken
// config file can still be inspected and repaired.
func skipSetup(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["skipSetup"] == "true" {
			return true
		}
	}
	return false
}

// setup loads config, applies flag overrides, opens the log and builds the
// client.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, path, err := loadConfig(a.flags.ConfigPath)
	if err != nil {
		return err
	}
	if a.flags.APIURL != "" {
		cfg.API.BaseURL = a.flags.APIURL
	}
	if a.flags.Agent != "" {
		cfg.Chat.DefaultAgent = a.flags.Agent
	}
	cfg.Migrate()
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid settings")
	}
	a.cfg = cfg
	a.cfgPath = path
	config.SetGlobal(cfg)

	log, closer, err := logging.Setup(cfg.Log, a.flags.LogStderr)
	if err != nil {
		return errors.Wrap(err, "set up logging")
	}
	a.log = log
	a.logCloser = closer
	a.log.V(1).Info("starting", "command", cmd.CommandPath(), "version", Version, "api", cfg.API.BaseURL)

	a.client = backend.NewClient(&backend.ClientConfig{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout(),
		AuthHeader: cfg.API.AuthHeader,
		UserAgent:  "llamabot/" + Version,
		Logger:     a.log,
	})
	return nil
}

// loadConfig loads path, or the default locations when path is empty. It
// returns the file in use, "" when running on defaults.
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		cfg, err := config.Load()
		return cfg, config.ActivePath(), err
	}
	cfg, err := config.LoadFromPath(path)
	return cfg, path, err
}

func (a *app) close() {
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
}

// newStore builds a Store over the app's client.
func (a *app) newStore() *store.Store {
	return store.New(a.client, store.Config{
		AutoSelectFirst: a.cfg.Chat.AutoSelectFirst,
		DefaultAgent:    a.cfg.Chat.DefaultAgent,
		Logger:          a.log,
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipSetup": "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "llamabot %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		},
	}
}
