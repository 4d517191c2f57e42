package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	authhandler "credchain/internal/auth/handler"
	"credchain/internal/auth/jwttoken"
	authservice "credchain/internal/auth/service"
	certhandler "credchain/internal/certificate/handler"
	certservice "credchain/internal/certificate/service"
	httpapi "credchain/internal/http"
	insthandler "credchain/internal/institution/handler"
	instservice "credchain/internal/institution/service"
	"credchain/internal/platform/config"
	"credchain/internal/platform/httpserver"
	"credchain/internal/platform/kafka"
	"credchain/internal/platform/metrics"
	"credchain/internal/platform/postgres"
	"credchain/internal/seed"
	vthandler "credchain/internal/verifytoken/handler"
	vtservice "credchain/internal/verifytoken/service"
	"credchain/pkg/platform/audit/outbox"
	"credchain/pkg/platform/audit/publisher"
)

func serveCommand() *cobra.Command {
	var (
		migrate  bool
		seedDemo bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serveRun(cmd, migrate, seedDemo)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the database schema before serving")
	cmd.Flags().BoolVar(&seedDemo, "seed", false, "load the demo dataset before serving")
	return cmd
}

func serveRun(cmd *cobra.Command, migrate, seedDemo bool) error {
	cfg := configFrom(cmd)
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()
	if migrate && st.db != nil {
		if err := postgres.Migrate(ctx, st.db); err != nil {
			return err
		}
	}

	anchor, releaseAnchor, err := openAnchor(ctx, cfg.Chain, logger, m)
	if err != nil {
		return err
	}
	defer releaseAnchor()

	if seedDemo {
		opts := seed.Options{BcryptCost: cfg.Auth.BcryptCost}
		if cfg.Chain.Backend == config.ChainBackendLedger {
			opts.Wallet = cfg.Chain.LedgerOwner
		}
		if _, err := seed.Run(ctx, seed.Stores{Students: st.students, Institutions: st.institutions, Accounts: st.accounts}, opts, logger); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	auditPublisher := publisher.NewPublisher(st.audit,
		publisher.WithAsyncBuffer(cfg.Audit.BufferSize),
		publisher.WithLogger(logger),
		publisher.WithDropHook(m.IncAuditEventsDropped),
	)
	defer auditPublisher.Close()

	tokens := jwttoken.NewJWTService(jwttoken.Config{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		Issuer:        cfg.Auth.Issuer,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	})
	auth, err := authservice.New(st.accounts, st.refresh, tokens,
		authservice.WithLogger(logger),
		authservice.WithAuditPublisher(auditPublisher),
		authservice.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	vt, err := vtservice.New(st.tokens, st.certificates,
		vtservice.WithTTL(cfg.Verification.TokenTTL),
		vtservice.WithLogger(logger),
		vtservice.WithAuditPublisher(auditPublisher),
		vtservice.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	certOpts := []certservice.Option{
		certservice.WithLogger(logger),
		certservice.WithAuditPublisher(auditPublisher),
		certservice.WithMetrics(m),
	}
	issuer, err := certservice.NewIssuer(st.certificates, st.students, st.institutions, anchor, certOpts...)
	if err != nil {
		return err
	}
	registry, err := certservice.NewRegistry(st.certificates, st.students, certOpts...)
	if err != nil {
		return err
	}
	verifier, err := certservice.NewVerifier(st.certificates, vt, anchor, certOpts...)
	if err != nil {
		return err
	}

	admin, err := instservice.New(st.institutions, anchor,
		instservice.WithLogger(logger),
		instservice.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Auth:         authhandler.New(auth, logger),
		Certificates: certhandler.New(issuer, registry, verifier, cfg.Upload.MaxBytes, logger),
		Tokens:       vthandler.New(vt, logger),
		Admin:        insthandler.New(admin, logger),
		Roles:        auth,
		Metrics:      promhttp.Handler(),
		Logger:       logger,
	})
	srv := httpserver.New(cfg.Server, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "http server listening", "addr", cfg.Server.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.InfoContext(shutdownCtx, "shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := startRelay(gctx, g, cfg, st, m, logger); err != nil {
		return err
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// startRelay streams the audit outbox to Kafka when both Postgres and
// brokers are configured.
func startRelay(ctx context.Context, g *errgroup.Group, cfg *config.Config, st *stores, m *metrics.Metrics, logger *slog.Logger) error {
	brokers := cfg.Kafka.BrokerList()
	if st.outbox == nil || len(brokers) == 0 {
		logger.InfoContext(ctx, "audit relay disabled", "brokers", len(brokers), "outbox", st.outbox != nil)
		return nil
	}
	producer, err := kafka.NewProducer(brokers, cfg.Kafka.Topic)
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	if err := producer.EnsureTopic(ctx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
		producer.Close()
		return fmt.Errorf("ensure audit topic: %w", err)
	}
	relay := outbox.NewRelay(st.outbox, producer,
		outbox.WithInterval(cfg.Kafka.RelayInterval),
		outbox.WithBatchSize(cfg.Kafka.RelayBatchSize),
		outbox.WithLogger(logger),
		outbox.WithRelayHook(m.AddOutboxEventsPublished),
	)
	g.Go(func() error {
		defer producer.Close()
		logger.InfoContext(ctx, "audit relay started", "topic", cfg.Kafka.Topic)
		return relay.Run(ctx)
	})
	return nil
}
