package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/go-ddd-auth-service/config"
	"github.com/oksasatya/go-ddd-auth-service/internal/container"
	pginfra "github.com/oksasatya/go-ddd-auth-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-ddd-auth-service/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-auth-service/internal/router"
	"github.com/oksasatya/go-ddd-auth-service/pkg/helpers"
	"github.com/oksasatya/go-ddd-auth-service/pkg/mailer"
	"github.com/oksasatya/go-ddd-auth-service/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// Initialize Postgres pool
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	// Run migrations using database/sql with pgx stdlib
	if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	// Redis holds session tokens, so it is required
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()
	if err := helpers.RetryConnect(ctx, 5, 500*time.Millisecond, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	// GCS is optional; avatar upload answers 503 without it
	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Warn("GCS unavailable; avatar upload disabled")
		} else {
			defer func() { _ = gcsClient.Close() }()
			container.SetGCS(gcsClient)
		}
	}

	if cfg.AuditESEnabled {
		es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch unavailable; audit indexing disabled")
		} else {
			container.SetES(es)
		}
	}

	hasher, err := helpers.NewPasswordHasher(cfg.PasswordHasher)
	if err != nil {
		log.Fatalf("password hasher: %v", err)
	}

	next, closeSender := buildSender(ctx, cfg, logger)
	defer closeSender()
	notifier := mailer.NewAsyncSink(next, cfg.NotifyQueueSize, logger)

	// Provide infra singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetRedis(rdb)
	container.SetHasher(hasher)
	container.SetJWT(helpers.NewJWTManager(cfg.JWTRefreshSecret, cfg.RefreshTTL, cfg.RememberTTL, cfg.AppName))
	container.SetNotifier(notifier)

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	r.Use(middleware.Metrics())
	// CORS
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RefreshHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r, cfg.APIPrefix)
	deps := router.InitModules(reg)
	reg.RegisterAll()

	// expired and used reset tokens are swept in the background
	pruneCtx, stopPrune := context.WithCancel(ctx)
	defer stopPrune()
	go deps.Recovery.RunPruner(pruneCtx, cfg.ResetPruneInterval)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	stopPrune()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	// flush queued reset and verification emails
	if err := notifier.Close(ctxShutdown); err != nil {
		logger.WithError(err).Warn("notification queue not fully drained")
	}
	logger.Info("server exited properly")
}

// buildSender picks where rendered emails go: the RabbitMQ queue consumed by
// cmd/email_worker, Mailgun directly, or the log when sending is disabled.
func buildSender(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (mailer.Sender, func()) {
	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; emails are logged, not sent")
		return mailer.NewLogSink(logger), func() {}
	}
	if cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(ctx, cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err == nil {
			return mailer.NewQueueSink(pub), pub.Close
		}
		logger.WithError(err).Warn("rabbitmq unavailable; falling back to direct delivery")
	}
	if cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "" {
		return mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender), func() {}
	}
	logger.Warn("no mail transport configured; emails are logged, not sent")
	return mailer.NewLogSink(logger), func() {}
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	// Open sql DB via pgx stdlib
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
