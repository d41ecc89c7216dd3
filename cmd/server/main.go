package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"intake/internal/platform/config"
	"intake/internal/platform/httpserver"
	"intake/internal/platform/logger"
	"intake/internal/platform/metrics"
	"intake/internal/platform/redis"
	"intake/internal/submission/expression"
	"intake/internal/submission/formconfig"
	"intake/internal/submission/lock"
	"intake/internal/submission/mapping"
	submissionmetrics "intake/internal/submission/metrics"
	"intake/internal/submission/ports"
	"intake/internal/submission/service"
	"intake/internal/submission/store/memory"
	"intake/internal/submission/store/postgres"
	audit "intake/pkg/platform/audit"
	"intake/pkg/platform/audit/publisher"
	auditkafka "intake/pkg/platform/audit/store/kafka"
	auditmemory "intake/pkg/platform/audit/store/memory"
	auditpostgres "intake/pkg/platform/audit/store/postgres"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const auditBuffer = 256

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Error("intake stopped", "error", err)
		os.Exit(1)
	}
}

// infra holds the process-wide backends and how to close them.
type infra struct {
	store   ports.Store
	locker  ports.Locker
	audit   *publisher.Publisher
	checks  map[string]Pinger
	closers []func()
}

func (i *infra) close() {
	for n := len(i.closers) - 1; n >= 0; n-- {
		i.closers[n]()
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close()

	configs, err := formconfig.LoadFile(cfg.SubmissionConfigPath)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "submission configs loaded", "count", configs.Len())

	registry := metrics.New(version)
	// Library and plan engines are supplied by embedding hosts; without them
	// post-commit steps report not_configured.
	svc, err := service.New(deps.store, mapping.New(mapping.WithDefinitionTransforms()), expression.New(),
		service.WithLogger(log),
		service.WithMetrics(submissionmetrics.New(registry.Registry)),
		service.WithAuditPublisher(deps.audit),
		service.WithLocker(deps.locker),
		service.WithPostCommitConcurrency(cfg.PostCommitConcurrency),
	)
	if err != nil {
		return fmt.Errorf("build submission service: %w", err)
	}
	ops := &opsHandler{configs: configs, responses: svc, checks: deps.checks, logger: log}
	srv := httpserver.New(cfg.OpsAddr, newOpsRouter(ops, registry.Handler()))

	errCh := make(chan error, 1)
	go func() {
		log.Info("ops server listening", "addr", cfg.OpsAddr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ops server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("ops server stopped")
	return nil
}

// buildInfra picks Postgres, Redis and Kafka when configured and in-process
// fallbacks otherwise.
func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	deps := &infra{checks: make(map[string]Pinger)}
	fail := func(err error) (*infra, error) {
		deps.close()
		return nil, err
	}

	var auditStore audit.Store
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return fail(fmt.Errorf("open database: %w", err))
		}
		deps.closers = append(deps.closers, func() { _ = db.Close() })

		store := postgres.New(db, postgres.WithTxTimeout(cfg.TxTimeout))
		if err := store.Migrate(ctx); err != nil {
			return fail(err)
		}
		events := auditpostgres.New(db)
		if err := events.Migrate(ctx); err != nil {
			return fail(err)
		}
		deps.store, auditStore = store, events
		deps.checks["store"] = store
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store")
		store := memory.New(memory.WithTxTimeout(cfg.TxTimeout))
		deps.store, auditStore = store, auditmemory.NewInMemoryStore()
		deps.checks["store"] = store
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fail(err)
	}
	if client != nil {
		deps.closers = append(deps.closers, func() { _ = client.Close() })
		deps.locker = lock.NewRedis(client.Client, lock.WithLogger(log))
		deps.checks["redis"] = PingFunc(client.Health)
	} else {
		deps.locker = lock.NewSharded()
	}

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := auditkafka.New(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return fail(err)
		}
		deps.closers = append(deps.closers, sink.Close)
		auditStore = sink
		deps.checks["kafka"] = sink
	}

	deps.audit = publisher.NewPublisher(auditStore, publisher.WithAsyncBuffer(auditBuffer), publisher.WithLogger(log))
	deps.closers = append(deps.closers, deps.audit.Close)
	return deps, nil
}
