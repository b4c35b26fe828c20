package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/ecom_proj/internal/auth"
	"github.com/Skotchmaster/ecom_proj/internal/config"
	"github.com/Skotchmaster/ecom_proj/internal/db"
	"github.com/Skotchmaster/ecom_proj/internal/events"
	"github.com/Skotchmaster/ecom_proj/internal/httpserver"
	"github.com/Skotchmaster/ecom_proj/internal/logging"
	"github.com/Skotchmaster/ecom_proj/internal/metrics"
	"github.com/Skotchmaster/ecom_proj/internal/repo"
	"github.com/Skotchmaster/ecom_proj/internal/search"
	"github.com/Skotchmaster/ecom_proj/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.ServiceName, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server_exit", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := logging.IntoContext(context.Background(), logger)

	gdb, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logger.Error("db_close_error", "error", err)
		}
	}()
	if err := db.Migrate(ctx, gdb); err != nil {
		return err
	}

	pub := events.NewPublisher(cfg.KafkaBrokers)
	defer func() {
		if err := pub.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}()

	r := repo.New(gdb)
	m := metrics.New()

	var idx service.ProductIndex
	if i := openIndex(ctx, cfg, logger); i != nil {
		idx = i
	}

	deps := &httpserver.Deps{
		Catalog: &httpserver.CatalogHTTP{
			Svc:            service.NewCatalogService(r, idx, pub),
			MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
		},
		Cart:                 &httpserver.CartHTTP{Svc: service.NewCartService(r, pub, m)},
		ProtectCatalogWrites: cfg.ProtectCatalogWrites,
		Metrics:              m,
		Ready:                func(ctx context.Context) error { return db.Ping(ctx, gdb) },
	}
	if err := wireAuth(ctx, cfg, gdb, deps); err != nil {
		return err
	}

	e := httpserver.NewEcho(httpserver.Options{
		Logger:       logger,
		Metrics:      m,
		RateLimitRPS: cfg.RateLimitRPS,
		// room for the image plus the product part
		BodyLimit: fmt.Sprintf("%dM", cfg.MaxUploadMB+1),
	})
	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      e,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_start", "addr", srv.Addr, "db_driver", cfg.DBDriver, "search_index", idx != nil, "auth", cfg.AuthEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("shutting_down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	logger.Info("shutdown_complete")
	return nil
}

// openIndex connects to Elasticsearch when ES_URL is set. Any failure
// leaves search on the database.
func openIndex(ctx context.Context, cfg *config.Config, logger *slog.Logger) *search.Index {
	if cfg.ESURL == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := search.NewClient(ctx, search.Config{
		URL:      cfg.ESURL,
		Username: cfg.ESUser,
		Password: cfg.ESPassword,
		Index:    cfg.ESIndex,
	})
	if err != nil {
		logger.Warn("search_index_disabled", "error", err)
		return nil
	}

	idx := search.NewIndex(client, cfg.ESIndex)
	if err := idx.EnsureIndex(ctx); err != nil {
		logger.Warn("search_index_disabled", "error", err)
		return nil
	}
	return idx
}

func wireAuth(ctx context.Context, cfg *config.Config, gdb *gorm.DB, deps *httpserver.Deps) error {
	if !cfg.AuthEnabled() {
		return nil
	}

	svc := auth.NewService(gdb, cfg.JWTSecret)
	if cfg.AdminUsername != "" {
		if err := svc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
	}

	deps.Auth = &httpserver.AuthHTTP{Svc: svc}
	deps.AuthMW = auth.NewMiddleware(svc)
	return nil
}
