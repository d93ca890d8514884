package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/littleapps/usagestats/agent/internal/config"
	"github.com/littleapps/usagestats/agent/internal/logging"
	"github.com/littleapps/usagestats/agent/internal/probe"
	"github.com/littleapps/usagestats/agent/internal/report"
	"github.com/littleapps/usagestats/agent/internal/serialize"
	"github.com/littleapps/usagestats/agent/internal/transmit"
)

const version = "0.1.0"

// options are the flags shared by every subcommand.
type options struct {
	configPath string
	fields     []string
	format     string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "usagestats-agent",
		Short: "Usage statistics reporting agent",
		Long: `usagestats-agent collects platform inventory, serializes it as JSON or XML
and posts it to a usage statistics collection endpoint.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "path to config file")
	root.PersistentFlags().StringArrayVar(&opts.fields, "field", nil, "extra field name=value sent in a custom event (repeatable)")
	root.PersistentFlags().StringVar(&opts.format, "format", "", "override the configured wire format: json|xml")

	root.AddCommand(newSendCmd(opts), newRenderCmd(opts), newRunCmd(opts))
	return root
}

func newSendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "send",
		Short: "Probe, serialize and send one batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, _, err := setup(opts)
			if err != nil {
				return err
			}
			r.Cycle(cmd.Context())
			return nil
		},
	}
}

func newRenderCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Print the payload that would be sent, without sending it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, _, err := setup(opts)
			if err != nil {
				return err
			}
			out, err := r.Render(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Send a batch every configured interval, reloading config on change",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, cfg, err := setup(opts)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			slog.Info("usagestats-agent starting",
				"endpoint", cfg.Agent.Endpoint,
				"format", cfg.Agent.Format,
				"interval", cfg.Agent.Interval,
				"tls", transmit.PolicyFor(cfg.Agent.StrictTLS).String(),
			)

			// Reloads swap the config for later cycles; the prober is kept.
			go func() {
				if err := config.Watch(ctx, opts.configPath, r.Update, flagOverrides(opts)); err != nil {
					slog.Error("config watcher stopped", "err", err)
				}
			}()

			r.Run(ctx)
			slog.Info("usagestats-agent shutting down")
			return nil
		},
	}
}

// setup loads config, installs the logger and builds a Reporter.
func setup(opts *options) (*report.Reporter, *config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := flagOverrides(opts)(&cfg.Agent); err != nil {
		return nil, nil, err
	}

	logger := logging.New(os.Stderr, cfg.Agent.LogLevel, cfg.Agent.LogFormat)
	slog.SetDefault(logger)

	extra, err := report.ParseFields(opts.fields)
	if err != nil {
		return nil, nil, err
	}

	r := report.New(cfg.Agent, newProber(cfg.Agent), transmit.New(logger), extra)
	return r, cfg, nil
}

// flagOverrides reapplies command-line flags on top of file settings.
func flagOverrides(opts *options) config.Override {
	return func(a *config.AgentConfig) error {
		if opts.format == "" {
			return nil
		}
		f, err := serialize.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		a.Format = string(f)
		return nil
	}
}

func newProber(a config.AgentConfig) probe.Prober {
	app := probe.App{ID: a.App.ID, Version: a.App.Version}
	if a.Probe.Source == "node_exporter" {
		return probe.NewNodeExporter(a.Probe.NodeExporterURL, app, nil)
	}
	return probe.NewRuntime(app, a.Probe.Commands)
}
