package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tapcraft-io/kubesync/internal/config"
	"github.com/tapcraft-io/kubesync/internal/logging"
	"github.com/tapcraft-io/kubesync/internal/tui"
)

// newRootCmd builds the command tree. Flags are layered on top of cfg, which
// already carries the defaults and the environment.
func newRootCmd(cfg *config.Config, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kubesync",
		Short: "Live, namespace-aware explorer for Kubernetes objects",
		Long: `kubesync keeps a local copy of your cluster's objects in sync through
list and watch, shared between every view that needs them.

When run without subcommands, it starts the terminal explorer.`,
		Version: version,
		// SilenceUsage keeps runtime errors from printing the usage text.
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplorer(cmd.Context(), cfg)
		},
	}
	cmd.SetVersionTemplate(`{{printf "kubesync version %s\n" .Version}}`)

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.KubeconfigPath, "kubeconfig", cfg.KubeconfigPath, "path to the kubeconfig file")
	flags.StringVar(&cfg.Context, "context", cfg.Context, "kubeconfig context to use")
	flags.StringSliceVarP(&cfg.Namespaces, "namespace", "n", cfg.Namespaces, "namespaces to select at start (default all)")
	flags.BoolVar(&cfg.Demo, "demo", cfg.Demo, "use a simulated in-memory cluster")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address, e.g. :9090")

	cmd.AddCommand(newWatchCmd(cfg))
	cmd.AddCommand(newVersionCmd(cfg))
	cmd.AddCommand(newContextsCmd(cfg))
	return cmd
}

// runExplorer runs the terminal explorer. Logs go to the log file since the
// explorer owns the screen.
func runExplorer(ctx context.Context, cfg *config.Config) error {
	if err := cfg.EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	logger, err := logging.New(logFile, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	model := tui.NewModel(tui.Config{
		Manager: a.manager,
		Mux:     a.mux,
		Stores:  a.stores,
		Events:  a.manager.StoreByKind("Event", "v1"),
		Context: a.client.Context,
		Logger:  logger,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if m, ok := finalModel.(tui.Model); ok {
		m.Stop()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
