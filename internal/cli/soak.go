package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bark/internal/config"
	"bark/internal/httpapi"
	"bark/internal/notifier"
	"bark/internal/soak"
)

const shutdownTimeout = 5 * time.Second

func newSoakCmd(cfg *config.Config) *cobra.Command {
	var addr string
	var hold bool
	cmd := &cobra.Command{
		Use:     "soak",
		Short:   "Drive a notifier with concurrent publishers and subscription churn",
		Example: "  bark soak --bags 128 --publishers 8 --churners 2\n  bark soak --addr :8090 --hold",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			s := &cfg.Soak
			for name, dst := range map[string]*int{
				"bags": &s.Bags, "names": &s.Names, "publishers": &s.Publishers,
				"churners": &s.Churners, "publishes": &s.Publishes, "handler-delay-ms": &s.HandlerDelayMS,
			} {
				if flags.Changed(name) {
					*dst, _ = flags.GetInt(name)
				}
			}
			if flags.Changed("addr") {
				cfg.Addr = addr
			}
			if hold && cfg.Addr == "" {
				return errors.New("--hold requires --addr")
			}
			return runSoak(cmd, *cfg, hold)
		},
	}
	f := cmd.Flags()
	f.Int("bags", 0, "Number of subscription bags (owners)")
	f.Int("names", 0, "Number of distinct event names")
	f.Int("publishers", 0, "Concurrent publishing goroutines")
	f.Int("churners", 0, "Concurrent goroutines that resubscribe or drop bags")
	f.Int("publishes", 0, "Publishes per publisher")
	f.Int("handler-delay-ms", 0, "Delay inside every handler, in milliseconds")
	f.StringVar(&addr, "addr", "", "Serve the introspection API on this address while soaking, e.g. :8090")
	f.BoolVar(&hold, "hold", false, "Keep serving after the soak finishes until SIGINT/SIGTERM")
	return cmd
}

func runSoak(cmd *cobra.Command, cfg config.Config, hold bool) error {
	log, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	policy, err := notifier.ParseFailurePolicy(cfg.FailurePolicy)
	if err != nil {
		return err
	}
	metrics := registerMetrics(prometheus.DefaultRegisterer, notifier.NewMetrics(cfg.MetricsNamespace), log)
	nlog := log.With().Str("component", "notifier").Logger()
	n := notifier.NewWithConfig(notifier.Config{Policy: policy, Logger: &nlog, Metrics: metrics})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Addr != "" {
		httpapi.SetLogger(log.With().Str("component", "http").Logger())
		httpapi.SetDefaultLogLevel(cfg.LogLevel)
		httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, nil, nil)
		srv = &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(n), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Info().Str("addr", cfg.Addr).Msg("introspection API listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		})
	}

	var rep soak.Report
	g.Go(func() error {
		defer func() {
			if srv != nil && !hold {
				shutdown(srv, log)
			}
		}()
		var err error
		rep, err = soak.Run(gctx, n, soakConfig(cfg.Soak), log)
		if err != nil {
			return err
		}
		printReport(cmd, rep)
		if hold {
			log.Info().Msg("soak finished; serving until interrupted")
			<-gctx.Done()
			shutdown(srv, log)
		}
		return nil
	})
	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil && cmd.Context().Err() == nil {
		// interrupted by signal
		return nil
	}
	return err
}

func soakConfig(s config.SoakConfig) soak.Config {
	return soak.Config{
		Bags:         s.Bags,
		Names:        s.Names,
		Publishers:   s.Publishers,
		Churners:     s.Churners,
		Publishes:    s.Publishes,
		HandlerDelay: time.Duration(s.HandlerDelayMS) * time.Millisecond,
	}
}

func shutdown(srv *http.Server, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
}

func printReport(cmd *cobra.Command, rep soak.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "publishes=%d invocations=%d resubscribes=%d dropped=%d elapsed=%s\n",
		rep.Publishes, rep.Invocations, rep.Resubscribes, rep.Dropped, rep.Elapsed.Round(time.Millisecond))
	names := make([]string, 0, len(rep.FinalRegistrations))
	for name := range rep.FinalRegistrations {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %s registrations=%d\n", name, rep.FinalRegistrations[name])
	}
}
