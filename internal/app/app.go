package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/card-draft/internal/config"
	"github.com/riskibarqy/card-draft/internal/domain/draft"
	"github.com/riskibarqy/card-draft/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/card-draft/internal/infrastructure/notify"
	cacherepo "github.com/riskibarqy/card-draft/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/card-draft/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/card-draft/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/card-draft/internal/interfaces/httpapi"
	idgen "github.com/riskibarqy/card-draft/internal/platform/id"
	"github.com/riskibarqy/card-draft/internal/platform/logging"
	"github.com/riskibarqy/card-draft/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

const (
	dbMaxOpenConns    = 20
	dbMaxIdleConns    = 5
	dbConnMaxLifetime = 30 * time.Minute
	dbPingTimeout     = 5 * time.Second
)

// App owns every long-lived dependency of the API process.
type App struct {
	Server  *http.Server
	Drafts  *usecase.DraftService
	Sweeper *usecase.AutoPickSweeper

	cfg     config.Config
	logger  *logging.Logger
	closers []func(context.Context) error
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{cfg: cfg, logger: logger}

	repo, err := a.buildDraftRepository(ctx)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	mutator := usecase.NewDraftMutator(repo, cfg.DraftMutationMaxAttempts, logger)
	a.Drafts = usecase.NewDraftService(repo, mutator, notifier, idgen.NewUUIDGenerator(), logger)
	a.Sweeper = usecase.NewAutoPickSweeper(repo, a.Drafts, usecase.AutoPickSweepConfig{
		Workers:   cfg.AutoPickSweepWorkers,
		BatchSize: cfg.AutoPickSweepBatch,
	}, logger)

	verifier := anubis.NewClient(anubis.Config{
		BaseURL:        cfg.AnubisBaseURL,
		IntrospectPath: cfg.AnubisIntrospectPath,
		Timeout:        cfg.AnubisTimeout,
		CacheTTL:       cfg.AnubisCacheTTL,
		CircuitBreaker: cfg.AnubisCircuit,
	}, logger)

	handler := httpapi.NewHandler(a.Drafts, a.Sweeper, logger)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	a.Server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	return a, nil
}

func (a *App) buildDraftRepository(ctx context.Context) (draft.Repository, error) {
	var repo draft.Repository
	switch a.cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := openPostgres(ctx, a.cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		repo = postgres.NewDraftRepository(db)
		a.logger.Info("draft storage ready", "driver", config.StoragePostgres, "database", postgres.DatabaseName(a.cfg.DBURL))
	default:
		repo = memory.NewDraftRepository()
		a.logger.Warn("draft storage is in-memory, drafts are lost on restart", "driver", config.StorageMemory)
	}

	if !a.cfg.CacheEnabled {
		return repo, nil
	}
	return cacherepo.NewDraftRepository(repo, cacherepo.NewDraftStore(a.cfg.CacheTTL, a.cfg.CacheMaxEntries)), nil
}

func openPostgres(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := postgres.NormalizeDSN(cfg.DBURL, cfg.DBBinaryParameters)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBName(postgres.DatabaseName(dsn)),
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)
	otelsql.ReportDBStatsMetrics(db.DB)

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

func buildNotifier(cfg config.Config, logger *logging.Logger) (usecase.DraftNotifier, error) {
	var notifiers []usecase.DraftNotifier
	if cfg.NotifyLogEnabled {
		notifiers = append(notifiers, notify.NewLogNotifier(logger))
	}
	if cfg.NotifyWebhookEnabled {
		publisher, err := notify.NewWebhookPublisher(notify.WebhookConfig{
			URL:            cfg.NotifyWebhookURL,
			Token:          cfg.NotifyWebhookToken,
			Timeout:        cfg.NotifyWebhookTimeout,
			CircuitBreaker: cfg.NotifyCircuit,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("build webhook notifier: %w", err)
		}
		notifiers = append(notifiers, publisher)
	}

	switch len(notifiers) {
	case 0:
		return usecase.NewNoopDraftNotifier(), nil
	case 1:
		return notifiers[0], nil
	default:
		return notify.NewFanout(notifiers...), nil
	}
}

// RunAutoPickSweeps sweeps on a fixed interval until ctx is done. It returns
// at once when the interval is zero, leaving sweeps to the internal job route.
func (a *App) RunAutoPickSweeps(ctx context.Context) {
	interval := a.cfg.AutoPickSweepInterval
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	a.logger.Info("auto-pick sweeper started", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("auto-pick sweeper stopped")
			return
		case <-ticker.C:
			if _, err := a.Sweeper.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.WarnContext(ctx, "auto-pick sweep failed", "error", err)
			}
		}
	}
}

// Close releases storage handles in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
