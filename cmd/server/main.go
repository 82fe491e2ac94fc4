package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/event-registration-api/internal/auth"
	"github.com/gdg-garage/event-registration-api/internal/config"
	"github.com/gdg-garage/event-registration-api/internal/database"
	"github.com/gdg-garage/event-registration-api/internal/export"
	"github.com/gdg-garage/event-registration-api/internal/handlers"
	"github.com/gdg-garage/event-registration-api/internal/logging"
	"github.com/gdg-garage/event-registration-api/internal/metrics"
	"github.com/gdg-garage/event-registration-api/internal/notifier"
	"github.com/gdg-garage/event-registration-api/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
	appName = "eventreg"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          appName,
		Short:        "Event registration API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	})
	cmd.AddCommand(exportCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

// setup loads configuration, configures logging and opens the database.
func setup() (*config.Config, *store.Store) {
	cfg := config.LoadConfig()
	logging.Setup(cfg.LogLevel, cfg.LogPretty)
	db := database.Connect(cfg)
	return cfg, store.New(db)
}

func buildNotifier(cfg *config.Config) (notifier.Notifier, func()) {
	var (
		fanout  notifier.Multi
		closers []func()
	)

	if cfg.DiscordBotToken != "" && cfg.DiscordNotificationsChannelID != "" {
		session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			log.Warn().Err(err).Msg("Discord notifier not initialized")
		} else {
			fanout = append(fanout, notifier.NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID))
			closers = append(closers, func() { session.Close() })
		}
	}

	if cfg.AMQPURL != "" {
		amqpNotifier, err := notifier.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Warn().Err(err).Msg("AMQP notifier not initialized")
		} else {
			fanout = append(fanout, amqpNotifier)
			closers = append(closers, amqpNotifier.Close)
		}
	}

	return fanout, func() {
		for _, c := range closers {
			c()
		}
	}
}

func serve(ctx context.Context) error {
	cfg, st := setup()

	authHandler := auth.NewAuthHandler(cfg, st)
	if err := authHandler.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	n, closeNotifier := buildNotifier(cfg)
	defer closeNotifier()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	r := chi.NewRouter()
	handlers.RegisterRoutes(r, cfg, handlers.Handlers{
		Auth:          authHandler,
		Events:        handlers.NewEventHandler(st, authHandler),
		Registrations: handlers.NewRegistrationHandler(st, authHandler, n, m, cfg.PaymentMethod),
		Analytics:     handlers.NewAnalyticsHandler(st, authHandler, m),
		Admins:        handlers.NewAdminHandler(st, authHandler),
	}, registry)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func exportCmd() *cobra.Command {
	var (
		filter export.Filter
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a registrations CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st := setup()
			ctx := cmd.Context()

			regs, err := st.ListRegistrations(ctx, store.RegistrationFilter{})
			if err != nil {
				return err
			}
			events, err := st.ListEvents(ctx)
			if err != nil {
				return err
			}
			regs = filter.Apply(regs)
			if len(regs) == 0 {
				return errors.New("no registrations match the filter")
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := export.WriteRegistrationsCSV(w, regs, export.NewCatalog(events)); err != nil {
				return err
			}
			log.Info().Int("rows", len(regs)).Str("out", out).Msg("Exported registrations")
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.EventID, "event", "all", "Event id")
	cmd.Flags().StringVar(&filter.SegmentID, "segment", "all", "Segment id")
	cmd.Flags().StringVar(&filter.PaymentStatus, "status", "all", "Payment status (pending, completed, failed)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")

	return cmd
}
