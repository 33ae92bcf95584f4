package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"pdpnode/internal/application"
	"pdpnode/internal/application/builtin"
	"pdpnode/internal/decision"
	"pdpnode/internal/decision/handler"
	decisionmetrics "pdpnode/internal/decision/metrics"
	jwttoken "pdpnode/internal/jwt_token"
	"pdpnode/internal/lifecycle"
	"pdpnode/internal/pip"
	pipmetrics "pdpnode/internal/pip/metrics"
	"pdpnode/internal/platform/config"
	"pdpnode/internal/platform/httpserver"
	"pdpnode/internal/platform/kafka"
	"pdpnode/internal/platform/logger"
	"pdpnode/internal/platform/metrics"
	"pdpnode/internal/platform/middleware"
	"pdpnode/internal/statistics"
	"pdpnode/internal/tosca"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies and keeps the process lifecycle small.
// Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("pdp node stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	backends, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backends.Close()
	store := backends.Store()

	pipMetrics := pipmetrics.New()
	providers := []pip.Provider{
		pip.NewOperationCounter(store, pip.WithLogger(log), pip.WithMetrics(pipMetrics)),
		pip.NewOutcomeResolver(store, pip.WithLogger(log), pip.WithMetrics(pipMetrics)),
	}

	catalog := tosca.NewCatalog()
	if cfg.PDP.PolicyTypesDir != "" {
		if err := catalog.LoadDir(cfg.PDP.PolicyTypesDir); err != nil {
			return fmt.Errorf("load policy types: %w", err)
		}
	}

	registry, err := newRegistry(cfg, builtin.Deps{Catalog: catalog, Providers: providers, Logger: log}, log)
	if err != nil {
		return err
	}
	stats := statistics.NewCollector()
	stats.SetPolicyTypes(int64(len(registry.SupportedTypes())))

	gate := handler.NewGate()
	nodeMetrics := metrics.New()

	smOpts := []lifecycle.Option{
		lifecycle.WithLogger(log),
		lifecycle.WithGroup(cfg.PDP.Group),
		lifecycle.WithStats(stats),
		lifecycle.WithHealthProbe(func(ctx context.Context) bool { return backends.Health(ctx) == nil }),
	}
	if cfg.PDP.Name != "" {
		smOpts = append(smOpts, lifecycle.WithName(cfg.PDP.Name))
	}
	sm := lifecycle.New(cfg.PDP.Type, gate, registry, smOpts...)
	nodeMetrics.SetBuildInfo(sm.Name(), cfg.PDP.Type)
	nodeMetrics.SetState(string(sm.State()))

	busClient, err := kafka.NewClient(kafka.Config{
		Brokers:  strings.Split(cfg.Kafka.Brokers, ","),
		Topic:    cfg.Kafka.Topic,
		GroupID:  kafkaGroup(cfg, sm.Name()),
		ClientID: cfg.Kafka.ClientID,
	})
	if err != nil {
		return fmt.Errorf("kafka client: %w", err)
	}
	defer busClient.Close()
	if cfg.Kafka.CreateTopic {
		if err := kafka.EnsureTopic(ctx, busClient, cfg.Kafka.Topic, cfg.Kafka.Partitions, cfg.Kafka.Replication); err != nil {
			return err
		}
	}
	publisher := lifecycle.NewBusPublisher(kafka.NewProducer(busClient, cfg.Kafka.Topic))

	heartbeat := lifecycle.NewHeartbeat(sm, publisher, cfg.PDP.HeartbeatInterval, log)
	listener := lifecycle.NewListener(sm, registry, stats, publisher,
		lifecycle.WithHeartbeat(heartbeat),
		lifecycle.WithListenerLogger(log),
		lifecycle.WithMessageMetrics(nodeMetrics),
	)

	service := decision.New(registry, stats,
		decision.WithLogger(log),
		decision.WithMetrics(decisionmetrics.New()),
	)
	api := handler.New(service, stats, gate, log,
		handler.WithName(sm.Name()),
		handler.WithHealthCheck(backends.Health),
	)
	srv := httpserver.New(cfg.Server.Addr, newRouter(cfg, api, log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting pdp node", "addr", cfg.Server.Addr, "name", sm.Name(), "group", cfg.PDP.Group)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return kafka.NewConsumer(busClient, log).Run(gctx, listener.HandleMessage)
	})
	g.Go(func() error {
		return heartbeat.Run(gctx)
	})
	if cfg.PDP.WatchTypes && cfg.PDP.PolicyTypesDir != "" {
		g.Go(func() error {
			if err := tosca.Watch(gctx, cfg.PDP.PolicyTypesDir, catalog, log); err != nil {
				log.WarnContext(gctx, "policy type watch stopped", "error", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()

		final := sm.Terminate(shutdownCtx)
		nodeMetrics.SetState(string(final.State))
		if err := publisher.Publish(shutdownCtx, final); err != nil {
			log.WarnContext(shutdownCtx, "failed to publish final status", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newRegistry(cfg config.Config, deps builtin.Deps, log *slog.Logger) (*application.Registry, error) {
	apps, err := builtin.Discover(cfg.PDP.Applications, deps)
	if err != nil {
		return nil, err
	}
	registry := application.NewRegistry(application.WithRegistryLogger(log))
	for _, app := range apps {
		if err := app.Initialize(application.InitParams{StoragePath: cfg.PDP.StoragePath}); err != nil {
			return nil, fmt.Errorf("initialize %s: %w", app.Name(), err)
		}
		if err := registry.Register(app); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func newRouter(cfg config.Config, api *handler.Handler, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestContext)
	r.Use(chimw.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		switch {
		case cfg.Server.JWTSigningKey != "":
			jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, jwttoken.Issuer, jwttoken.Audience)
			r.Use(middleware.RequireAuth(jwttoken.NewValidator(jwtService), log))
		case cfg.Server.BasicAuthUser != "":
			r.Use(middleware.RequireBasicAuth(cfg.Server.BasicAuthUser, cfg.Server.BasicAuthHash, log))
		}
		api.Register(r)
	})
	return r
}

// kafkaGroup defaults to a group per node so every node sees every
// coordinator message.
func kafkaGroup(cfg config.Config, nodeName string) string {
	if cfg.Kafka.GroupID != "" {
		return cfg.Kafka.GroupID
	}
	return nodeName
}
