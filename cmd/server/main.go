package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"policyregistry/internal/access"
	jwttoken "policyregistry/internal/jwt_token"
	"policyregistry/internal/payout"
	"policyregistry/internal/platform/config"
	"policyregistry/internal/platform/httpserver"
	"policyregistry/internal/platform/kafka"
	"policyregistry/internal/platform/logger"
	platformmetrics "policyregistry/internal/platform/metrics"
	"policyregistry/internal/platform/postgres"
	"policyregistry/internal/platform/redis"
	"policyregistry/internal/registry/cache"
	"policyregistry/internal/registry/handler"
	registrymetrics "policyregistry/internal/registry/metrics"
	"policyregistry/internal/registry/outbox"
	"policyregistry/internal/registry/service"
	"policyregistry/internal/registry/store"
	"policyregistry/pkg/platform/circuit"
	"policyregistry/pkg/platform/httputil"
	request "policyregistry/pkg/platform/middleware/request"
	"policyregistry/pkg/platform/middleware/requesttime"
)

// main wires dependencies and runs the HTTP server and the outbox relay
// until SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(os.Stdout, cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("policy registry stopped with error", "error", err)
		os.Exit(1)
	}
}

// registryStore is what the service and the relay need from a backend.
type registryStore interface {
	service.Store
	outbox.Source
}

type backends struct {
	registry   registryStore
	owners     access.Store
	transferer service.Transferer
	pool       *pgxpool.Pool
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	if b.pool != nil {
		defer b.pool.Close()
	}

	ownership, err := access.New(ctx, b.owners, cfg.Owner, access.WithLogger(log))
	if err != nil {
		return fmt.Errorf("init access control: %w", err)
	}

	policyCache, closeCache, err := buildCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	svc, err := service.New(b.registry, ownership, b.transferer,
		service.WithLogger(log),
		service.WithMetrics(registrymetrics.New(reg)),
		service.WithCache(policyCache),
		service.WithTransferTimeout(cfg.Payout.TransferTimeout),
	)
	if err != nil {
		return err
	}
	if err := svc.Bootstrap(ctx, cfg.MinimumPremium); err != nil {
		return err
	}

	relay, closeRelay, err := buildRelay(ctx, cfg, b, reg, log)
	if err != nil {
		return err
	}
	defer closeRelay()

	jwtService := jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)
	h := handler.New(svc, ownership, jwttoken.NewJWTServiceAdapter(jwtService), log)

	router := newRouter(h, platformmetrics.New(reg), reg, b, log)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting policy registry",
		"addr", cfg.Addr,
		"storage", cfg.Storage,
		"owner", cfg.Owner.String(),
		"minimum_premium", cfg.MinimumPremium.String(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, cfg.ShutdownTimeout, log)
	})
	g.Go(func() error {
		return relay.Run(gctx)
	})
	return g.Wait()
}

func openBackends(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backends, error) {
	if cfg.Storage != config.StoragePostgres {
		return &backends{
			registry:   store.NewInMemoryStore(),
			owners:     access.NewInMemoryStore(),
			transferer: payout.NewInMemoryLedger(log, cfg.Payout.Blocked...),
		}, nil
	}

	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		return nil, err
	}
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	ledger := payout.NewPostgresLedger(pool, log)
	for _, addr := range cfg.Payout.Blocked {
		if err := ledger.SetBlocked(ctx, addr, true); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &backends{
		registry:   store.NewPostgresStore(pool),
		owners:     access.NewPostgresStore(pool),
		transferer: ledger,
		pool:       pool,
	}, nil
}

// buildCache layers the shared Redis cache under the local LRU when Redis is configured.
func buildCache(ctx context.Context, cfg *config.Config, log *slog.Logger) (service.PolicyCache, func(), error) {
	local := cache.NewLRU(cfg.Cache.Size, cfg.Cache.TTL)
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return local, func() {}, nil
	}
	shared := cache.NewRedisCache(client, cfg.Redis.TTL, log)
	return cache.NewTiered(local, shared), func() { _ = client.Close() }, nil
}

func buildRelay(ctx context.Context, cfg *config.Config, b *backends, reg prometheus.Registerer, log *slog.Logger) (*outbox.Relay, func(), error) {
	var (
		publisher outbox.Publisher = outbox.NewLogPublisher(log)
		closeFn                    = func() {}
	)
	producer, err := kafka.NewProducer(ctx, cfg.Kafka)
	if err != nil {
		return nil, nil, err
	}
	if producer != nil {
		if err := kafka.EnsureTopic(ctx, producer, cfg.Kafka.Topic, 3, 1); err != nil {
			log.Warn("could not ensure kafka topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		publisher = outbox.NewKafkaPublisher(producer, cfg.Kafka.Topic)
		closeFn = producer.Close
	}

	opts := []outbox.Option{
		outbox.WithLogger(log),
		outbox.WithMetrics(outbox.NewMetrics(reg)),
		outbox.WithInterval(cfg.Outbox.PollInterval),
		outbox.WithBatchSize(cfg.Outbox.BatchSize),
		outbox.WithBreaker(circuit.New("outbox-publisher",
			circuit.WithFailureThreshold(cfg.Outbox.FailureThreshold))),
	}
	if b.pool != nil {
		wake, err := outbox.Listen(ctx, cfg.DatabaseURL, store.OutboxChannel, log)
		if err != nil {
			log.Warn("outbox notifications unavailable, polling only", "error", err)
		} else {
			opts = append(opts, outbox.WithWakeup(wake))
		}
	}
	return outbox.NewRelay(b.registry, publisher, opts...), closeFn, nil
}

func newRouter(h *handler.Handler, m *platformmetrics.HTTP, g prometheus.Gatherer, b *backends, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requesttime.Middleware)
	r.Use(m.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if b.pool != nil {
			if err := postgres.NewReadinessChecker(b.pool).Health(r.Context()); err != nil {
				log.WarnContext(r.Context(), "health check failed", "error", err)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", platformmetrics.Handler(g))
	r.Route("/v1", func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))
		h.Register(r)
	})
	return r
}
