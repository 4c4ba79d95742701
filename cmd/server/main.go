// Command server wires the PassBuy concession-card service: identity,
// reference catalogs, and the application workflow over one chi router.
// Business logic lives in the internal service packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	identityhandler "passbuy/internal/identity/handler"
	identityservice "passbuy/internal/identity/service"
	identitystore "passbuy/internal/identity/store"
	"passbuy/internal/jwttoken"
	"passbuy/internal/platform/config"
	"passbuy/internal/platform/database"
	"passbuy/internal/platform/events"
	"passbuy/internal/platform/httpserver"
	"passbuy/internal/platform/logger"
	"passbuy/internal/platform/metrics"
	refhandler "passbuy/internal/reference/handler"
	refstore "passbuy/internal/reference/store"
	"passbuy/internal/transport/http/shared"
	workflowhandler "passbuy/internal/workflow/handler"
	workflowservice "passbuy/internal/workflow/service"
	workflowstore "passbuy/internal/workflow/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		users     identitystore.Store
		reference refstore.Store
		workflow  workflowstore.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := database.Open(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Error("database unavailable", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := database.EnsureSchema(ctx, db); err != nil {
			log.Error("schema setup failed", "error", err)
			os.Exit(1)
		}
		users = identitystore.NewPostgres(db)
		reference = refstore.NewPostgres(db)
		workflow = workflowstore.NewPostgres(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		users = identitystore.NewInMemory()
		reference = refstore.NewInMemory()
		workflow = workflowstore.NewInMemory()
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		reference = refstore.NewCached(reference, client, config.RefCatalogCacheTTL, log)
	}

	if err := refstore.Seed(ctx, reference, log); err != nil {
		log.Error("reference seed failed", "error", err)
		os.Exit(1)
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafka(cfg.KafkaBrokers, log)
		if err != nil {
			log.Error("kafka setup failed", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		publisher = kafka
	}

	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	identity := identityservice.New(users, tokens, cfg.AccessTokenTTL, m)
	engine := workflowservice.New(workflow, reference, m, publisher)

	router := chi.NewRouter()
	router.Use(m.Latency)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	identityhandler.New(identity, log).Register(router)
	refhandler.New(reference, log).Register(router)
	workflowhandler.New(engine, tokens, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := httpserver.New(cfg.MetricsAddr, metricsMux)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting passbuy api", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting metrics endpoint", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
