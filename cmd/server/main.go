// Command server runs the invoice admin HTTP API.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/ledgerline/invoiceadmin/internal/app"
	"github.com/ledgerline/invoiceadmin/internal/cache"
	"github.com/ledgerline/invoiceadmin/internal/config"
	"github.com/ledgerline/invoiceadmin/internal/httpapi"
	"github.com/ledgerline/invoiceadmin/internal/platform/migrations"
	"github.com/ledgerline/invoiceadmin/internal/storage/postgres"
	"github.com/ledgerline/invoiceadmin/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}).WithField("component", "server")

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("server exited")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores := app.Stores{}
	var db *sql.DB
	if cfg.Database.DSN != "" {
		var err error
		db, err = openDatabase(cfg.Database)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		if err := migrations.Apply(ctx, db); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}

		pg := postgres.New(db)
		stores = app.Stores{
			Invoices:  pg,
			Customers: pg,
			Users:     pg,
			Sessions:  pg,
			Revenue:   pg,
		}
		log.Info("postgres store configured")
	} else {
		log.Warn("DATABASE_DSN not set; using in-memory store")
	}

	var views cache.ViewCache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.Redis.TTL)*time.Second, log.WithField("component", "cache"))
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisCache.Close()
		views = redisCache
		log.WithField("addr", cfg.Redis.Addr).Info("redis view cache configured")
	} else {
		log.Warn("REDIS_ADDR not set; view caching disabled")
	}

	application, err := app.New(stores, app.Options{
		Views:     views,
		JWTSecret: []byte(cfg.Auth.JWTSecret),
		TokenTTL:  time.Duration(cfg.Auth.TokenTTL) * time.Second,
		Issuer:    cfg.Auth.Issuer,
		SweepCron: cfg.Auth.SweepCron,
	}, log)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}

	if err := seedAdmin(ctx, application, log); err != nil {
		log.WithError(err).Warn("seed admin user")
	}

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("start application: %w", err)
	}
	defer application.Stop(context.Background())

	handler, err := httpapi.NewHandler(application, httpapi.Config{
		CORSOrigins:  cfg.Auth.CORSOrigins,
		RateLimitRPS: cfg.RateLimit.RequestsPerSecond,
		RateBurst:    cfg.RateLimit.Burst,
		AuditLogPath: os.Getenv("AUDIT_LOG_PATH"),
	}, log)
	if err != nil {
		return fmt.Errorf("build handler: %w", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// seedAdmin creates the bootstrap login when ADMIN_EMAIL and ADMIN_PASSWORD
// are set and no such user exists yet.
func seedAdmin(ctx context.Context, application *app.Application, log *logger.Logger) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	if _, err := application.Auth.UserByEmail(ctx, email); err == nil {
		return nil
	}

	u, err := application.Auth.SeedUser(ctx, "Admin", email, password)
	if err != nil {
		return err
	}
	log.WithField("user_id", u.ID).WithField("email", email).Info("admin user seeded")
	return nil
}
