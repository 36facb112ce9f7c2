package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"bark/internal/config"
	"bark/internal/notifier"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

// Execute runs the bark command tree against os.Args.
func Execute(ctx context.Context) error {
	root := buildRootCmd(os.Stdout, os.Stderr)
	return root.ExecuteContext(ctx)
}

// buildRootCmd constructs the Cobra command tree. Output is split the usual
// way: reports go to out, logs go to errOut.
func buildRootCmd(out, errOut io.Writer) *cobra.Command {
	var configPath string
	cfg := &config.Config{}

	root := &cobra.Command{
		Use:           "bark",
		Short:         "In-process notifier tooling: soak runs and introspection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	// Persistent flags -> Config
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (.yaml, .yml, .json or .toml)")
	root.PersistentFlags().String("log-level", config.DefaultLogLevel, "Log level: debug|info|warn|error")
	root.PersistentFlags().String("log-format", config.DefaultLogFormat, "Log format: console|json")
	root.PersistentFlags().String("failure-policy", config.DefaultFailurePolicy, "Handler failure policy: abort|continue")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			loaded, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			*cfg = loaded
		}
		flags := cmd.Flags()
		if flags.Changed("log-level") || cfg.LogLevel == "" {
			cfg.LogLevel, _ = flags.GetString("log-level")
		}
		if flags.Changed("log-format") || cfg.LogFormat == "" {
			cfg.LogFormat, _ = flags.GetString("log-format")
		}
		if flags.Changed("failure-policy") || cfg.FailurePolicy == "" {
			cfg.FailurePolicy, _ = flags.GetString("failure-policy")
		}
		cfg.ApplyDefaults()
		return nil
	}

	root.AddCommand(newSoakCmd(cfg), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bark version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "bark %s\n", Version)
			return err
		},
	}
}

// registerMetrics registers m, reusing an already registered collector when a
// previous command in the same process registered one. Any other failure is
// logged and disables notifier metrics.
func registerMetrics(reg prometheus.Registerer, m *notifier.Metrics, log zerolog.Logger) *notifier.Metrics {
	err := reg.Register(m)
	if err == nil {
		return m
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(*notifier.Metrics); ok {
			return existing
		}
	}
	log.Warn().Err(err).Msg("notifier metrics disabled: registration failed")
	return nil
}
