package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	adminhandler "smartparking/internal/admin/handler"
	adminservice "smartparking/internal/admin/service"
	adminstore "smartparking/internal/admin/store"
	authhandler "smartparking/internal/auth/handler"
	authmetrics "smartparking/internal/auth/metrics"
	"smartparking/internal/auth/events"
	"smartparking/internal/auth/password"
	"smartparking/internal/auth/ratelimit"
	authservice "smartparking/internal/auth/service"
	"smartparking/internal/auth/store/revocation"
	"smartparking/internal/auth/token"
	"smartparking/internal/auth/workers/cleanup"
	"smartparking/internal/platform/config"
	"smartparking/internal/platform/database"
	"smartparking/internal/platform/health"
	"smartparking/internal/platform/kafka/producer"
	redisclient "smartparking/internal/platform/redis"
	"smartparking/internal/seeder"
	tenanthandler "smartparking/internal/tenant/handler"
	tenantmetrics "smartparking/internal/tenant/metrics"
	tenantmw "smartparking/internal/tenant/middleware"
	tenantservice "smartparking/internal/tenant/service"
	tenantstore "smartparking/internal/tenant/store"
	httptransport "smartparking/internal/transport/http"
	"smartparking/pkg/platform/middleware/metadata"
	"smartparking/pkg/platform/middleware/request"
	"smartparking/pkg/platform/circuit"
	"smartparking/pkg/platform/middleware/throttle"
	"smartparking/pkg/platform/tracer"
)

// infra holds the optional external dependencies. A nil field selects the
// in-memory implementation of the matching store.
type infra struct {
	db       *database.Pool
	redis    *redisclient.Client
	producer *producer.Producer
}

func connectInfra(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer) (*infra, error) {
	in := &infra{}
	if cfg.Database.URL != "" && cfg.Database.MigrateOnStart {
		if err := database.Migrate(cfg.Database.URL); err != nil {
			return nil, err
		}
		log.Info("database migrations applied")
	}

	var err error
	if in.db, err = database.New(ctx, cfg.Database, reg); err != nil {
		return nil, err
	}
	if in.redis, err = redisclient.New(ctx, cfg.Redis, reg); err != nil {
		in.close(log)
		return nil, err
	}
	if cfg.Kafka.Brokers != "" {
		in.producer, err = producer.New(producer.Config{
			Brokers:         cfg.Kafka.Brokers,
			ClientID:        "smartparking",
			Acks:            cfg.Kafka.Acks,
			Retries:         cfg.Kafka.Retries,
			DeliveryTimeout: 10 * time.Second,
		}, log)
		if err != nil {
			in.close(log)
			return nil, err
		}
	}
	return in, nil
}

func (in *infra) close(log *slog.Logger) {
	if in.producer != nil {
		in.producer.Close(5 * time.Second)
	}
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			log.Warn("close redis", "error", err)
		}
	}
	if in.db != nil {
		if err := in.db.Close(); err != nil {
			log.Warn("close database", "error", err)
		}
	}
}

// app is the assembled process: the HTTP handler plus the background parts
// that need lifecycle management.
type app struct {
	handler  http.Handler
	bus      *events.Bus
	throttle *throttle.Limiter
	cleanup  *cleanup.CleanupService
	seeder   *seeder.Seeder
}

type appOption func(*appOptions)

type appOptions struct {
	clock func() time.Time
}

// withClock pins every clock-driven component to now.
func withClock(now func() time.Time) appOption {
	return func(o *appOptions) {
		o.clock = now
	}
}

func buildApp(cfg config.Config, in *infra, log *slog.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer, opts ...appOption) (*app, error) {
	o := appOptions{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	trusted, err := metadata.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, err
	}

	tokens, err := token.New(token.Config{
		AccessSecret:  cfg.Auth.AccessTokenSecret,
		RefreshSecret: cfg.Auth.RefreshTokenSecret,
		AccessTTL:     cfg.Auth.AccessTokenTTL,
		RefreshTTL:    cfg.Auth.RefreshTokenTTL,
		AccessMaxAge:  cfg.Auth.AccessTokenMaxAge,
		RefreshMaxAge: cfg.Auth.RefreshTokenMaxAge,
		Issuer:        "smartparking",
	}, token.WithClock(o.clock))
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	authMetrics := authmetrics.New(reg)
	tenantMetrics := tenantmetrics.New(reg)
	requestMetrics := request.NewMetrics(reg)
	tr := tracer.NewOTel()
	hasher := password.New()

	var (
		tenants interface {
			tenantservice.TenantStore
			tenantmw.Lookup
		}
		admins interface {
			adminservice.AdminStore
			authservice.AdminStore
		}
		ledger     revocation.Ledger
		limitStore ratelimit.Store
		sweepers   []cleanup.Sweeper
	)
	if in.db != nil {
		tenants = tenantstore.NewPostgres(in.db.DB())
		admins = adminstore.NewPostgres(in.db.DB())
	} else {
		tenants = tenantstore.NewInMemory()
		admins = adminstore.NewInMemory()
	}
	if in.redis != nil {
		ledger = revocation.NewRedisLedger(in.redis.Client)
		// Login limits keep working on a local window while Redis is down.
		localLimits := ratelimit.NewInMemoryStore()
		limitStore = ratelimit.NewFallbackStore(
			ratelimit.NewRedisStore(in.redis.Client, "smartparking:ratelimit:"),
			localLimits,
			circuit.New("ratelimit-redis", circuit.OnStateChange(func(name string, open bool) {
				authMetrics.SetRateLimitDegraded(name, open)
				log.Warn("login rate limit store state changed", "breaker", name, "degraded", open)
			})),
		)
		sweepers = []cleanup.Sweeper{localLimits, nil}
	} else {
		memLedger := revocation.NewInMemoryLedger(revocation.WithClock(o.clock))
		memLimits := ratelimit.NewInMemoryStore()
		ledger, limitStore = memLedger, memLimits
		sweepers = []cleanup.Sweeper{memLimits, memLedger}
	}

	bus := events.NewBus(events.WithLogger(log), events.WithMetrics(authMetrics))
	bus.Subscribe(events.NewAuditLogger(log))
	if in.producer != nil {
		bus.Subscribe(events.NewKafkaPublisher(in.producer, cfg.Kafka.LoginTopic))
	}

	limiter := ratelimit.New(limitStore, ratelimit.Config{
		Account: ratelimit.Policy{MaxAttempts: cfg.RateLimit.LoginMaxAttempts, Window: cfg.RateLimit.LoginWindow},
		IP:      ratelimit.Policy{MaxAttempts: cfg.RateLimit.IPMaxAttempts, Window: cfg.RateLimit.LoginWindow},
	}, ratelimit.WithLogger(log), ratelimit.WithMetrics(authMetrics), ratelimit.WithClock(o.clock))

	tenantSvc := tenantservice.New(tenants,
		tenantservice.WithLogger(log),
		tenantservice.WithMetrics(tenantMetrics),
		tenantservice.WithTracer(tr),
		tenantservice.WithClock(o.clock),
	)
	adminSvc := adminservice.New(admins, hasher,
		adminservice.WithLogger(log),
		adminservice.WithTracer(tr),
		adminservice.WithClock(o.clock),
	)
	authSvc := authservice.New(admins, tenants, hasher, tokens, ledger,
		authservice.Config{RotateRefreshTokens: cfg.Auth.RefreshRotation},
		authservice.WithLogger(log),
		authservice.WithMetrics(authMetrics),
		authservice.WithTracer(tr),
		authservice.WithRateLimiter(limiter),
		authservice.WithPublisher(bus),
		authservice.WithClock(o.clock),
	)

	healthHandler := health.New(cfg.Environment)
	if in.db != nil {
		healthHandler.RegisterCheck("postgres", in.db.Health)
	}
	if in.redis != nil {
		healthHandler.RegisterCheck("redis", in.redis.Health)
	}
	if in.producer != nil {
		healthHandler.RegisterCheck("kafka", in.producer.Healthy)
	}

	authThrottle := throttle.New(throttle.Config{
		Rate:            rate.Limit(cfg.RateLimit.AuthIPRPS),
		Burst:           cfg.RateLimit.AuthIPBurst,
		IdleTTL:         10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}, log)

	handler := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		TrustedProxies: trusted,
		AdminAPIToken:  cfg.Server.AdminAPIToken,
		Gatherer:       gatherer,
		RequestMetrics: requestMetrics,
		Health:         healthHandler,
		Resolver: tenantmw.New(tenants, log,
			tenantmw.WithMetrics(tenantMetrics),
			tenantmw.WithTracer(tr),
		),
		AuthThrottle: authThrottle,
		Tokens:       tokens,
		Auth:         authhandler.New(authSvc, log),
		Admins:       adminhandler.New(adminSvc, log),
		Tenants:      tenanthandler.New(tenantSvc, log),
	})

	a := &app{
		handler:  handler,
		bus:      bus,
		throttle: authThrottle,
		seeder:   seeder.New(tenants, admins, hasher, log),
	}
	if len(sweepers) > 0 {
		a.cleanup, err = cleanup.New(sweepers[0], sweepers[1],
			cleanup.WithCleanupLogger(log),
			cleanup.WithCleanupClock(o.clock),
		)
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

// seedDemo loads the demo data set. Used when running on memory stores,
// which start empty.
func (a *app) seedDemo(ctx context.Context) error {
	doc, err := seeder.Demo()
	if err != nil {
		return err
	}
	_, err = a.seeder.Seed(ctx, doc)
	return err
}

// runWorkers blocks running the background loops until ctx ends.
func (a *app) runWorkers(ctx context.Context) error {
	if a.cleanup == nil {
		<-ctx.Done()
		return nil
	}
	if err := a.cleanup.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// shutdown stops the background parts after the HTTP server has drained.
func (a *app) shutdown(ctx context.Context) error {
	a.throttle.Stop()
	return a.bus.Close(ctx)
}
