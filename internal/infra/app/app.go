package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/newsline/accounts-service/internal/core/port"
	"github.com/newsline/accounts-service/internal/infra/config"
	"github.com/newsline/accounts-service/internal/infra/database"
	"github.com/newsline/accounts-service/internal/infra/kafka"
	infraredis "github.com/newsline/accounts-service/internal/infra/redis"
	"github.com/newsline/accounts-service/internal/infra/security"
	pgrepo "github.com/newsline/accounts-service/internal/repository/postgres"
	redisrepo "github.com/newsline/accounts-service/internal/repository/redis"
	"github.com/newsline/accounts-service/internal/transport/http/handlers"
	"github.com/newsline/accounts-service/internal/transport/http/routes"
	"github.com/newsline/accounts-service/internal/usecase"
)

// App owns the wired service graph and the lifecycle of its resources.
type App struct {
	cfg    *config.AppConfig
	log    *zap.Logger
	pool   *pgxpool.Pool
	redis  *infraredis.Client
	kafka  *kafka.Producer
	server *http.Server
}

// New connects the backing services and assembles the object graph.
func New(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*App, error) {
	if cfg.Postgres.Migrate {
		if err := database.RunMigrations(ctx, cfg.Postgres, log); err != nil {
			return nil, err
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, err
	}

	redisClient, err := infraredis.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, err
	}

	var publisher port.EmailPublisher
	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix, log)
		if err != nil {
			pool.Close()
			_ = redisClient.Close()
			return nil, err
		}
		publisher = producer
	} else {
		log.Warn("no kafka brokers configured, activation codes go to the log")
		publisher = kafka.NewLogPublisher()
	}

	repos := pgrepo.NewRepositories(pool)
	revocation := redisrepo.NewRevocationRepository(redisClient.Raw(), cfg.Redis.RevocationPrefix)
	rateLimits := redisrepo.NewRateLimitRepository(redisClient.Raw(), redisrepo.SlidingWindowConfig{
		KeyPrefix: cfg.Redis.RateLimitPrefix,
		TTL:       2 * cfg.RateLimit.WindowDuration,
	})

	hasher := security.NewPasswordHasher(security.DefaultArgon2Params())
	validator := security.NewPasswordValidator()
	issuer := security.NewTokenIssuer(
		cfg.JWT.Secret, cfg.App.Name,
		cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL,
	)

	registration := usecase.NewRegistrationService(
		repos.Users, repos.ActivationCodes, publisher,
		hasher, validator,
		security.GenerateActivationCode,
		cfg.Email.DispatchTimeout,
	)
	activation := usecase.NewActivationService(repos.Users, repos.ActivationCodes)
	auth := usecase.NewAuthService(repos.Users, issuer, revocation, hasher)

	health := handlers.NewHealthHandler(map[string]handlers.DependencyCheck{
		"postgres": pool.Ping,
		"redis":    redisClient.HealthCheck,
	})

	engine := routes.New(routes.Deps{
		Registration: handlers.NewRegistrationHandler(registration, activation),
		Auth:         handlers.NewAuthHandler(auth),
		Health:       health,
		Tokens:       issuer,
		RateLimits:   rateLimits,
		Limits:       cfg.RateLimit,
		Env:          cfg.App.Env,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &App{
		cfg:    cfg,
		log:    log,
		pool:   pool,
		redis:  redisClient,
		kafka:  producer,
		server: server,
	}, nil
}

// Run serves HTTP until the context is canceled, then shuts down
// gracefully and releases all resources.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.log.Info("http server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err := <-errCh:
		a.close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http server shutdown failed", zap.Error(err))
	}

	a.close()
	return <-errCh
}

func (a *App) close() {
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			a.log.Error("kafka producer close failed", zap.Error(err))
		}
	}
	if err := a.redis.Close(); err != nil {
		a.log.Error("redis close failed", zap.Error(err))
	}
	a.pool.Close()
	a.log.Info("resources released")
}
