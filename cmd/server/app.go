package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/recall-api/internal/cardtemplate"
	"github.com/phrazzld/recall-api/internal/config"
	"github.com/phrazzld/recall-api/internal/domain/srs"
	"github.com/phrazzld/recall-api/internal/platform/postgres"
	"github.com/phrazzld/recall-api/internal/platform/redis"
	"github.com/phrazzld/recall-api/internal/service/auth"
	"github.com/phrazzld/recall-api/internal/service/review"
	"github.com/phrazzld/recall-api/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config

	logger *slog.Logger
	db     *sql.DB
	redis  *goredis.Client

	jwtService    auth.JWTService
	reviewService review.Service
}

// newApplication creates a new application instance with all dependencies initialized.
// The database connection must already be established.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Bool("issuer_checked", cfg.Auth.Issuer != ""))

	var cardTypes store.CardTypeStore = postgres.NewPostgresCardTypeStore(db, logger)
	if cfg.Cache.Enabled() {
		app.redis, err = redis.NewClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		cardTypes = redis.NewCardTypeCache(cardTypes, app.redis, cfg.Cache.CardTypeTTL(), logger)
		logger.Info("Card type cache enabled",
			slog.Duration("ttl", cfg.Cache.CardTypeTTL()))
	}

	stores := review.Stores{
		AccountCards:  postgres.NewPostgresAccountCardStore(db, logger),
		ReviewHistory: postgres.NewPostgresReviewHistoryStore(db, logger),
		Knowledge:     postgres.NewPostgresKnowledgeStore(db, logger),
		CardTypes:     cardTypes,
	}

	renderer := cardtemplate.NewRenderer(cardtemplate.NewDefaultSanitizer(), logger)

	app.reviewService = review.NewService(
		db,
		stores,
		renderer,
		srs.NewDefaultService(),
		review.Config{
			DailyLimit: cfg.Review.DailyLimit,
			MaxRetries: cfg.Review.MaxRetries,
		},
		logger,
	)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("Error closing redis connection", slog.String("error", err.Error()))
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("Application shutdown completed")
}
