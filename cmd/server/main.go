package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/pricebook/pricebook/internal/catalog"
	"github.com/pricebook/pricebook/internal/config"
	"github.com/pricebook/pricebook/internal/currency"
	"github.com/pricebook/pricebook/internal/logging"
	"github.com/pricebook/pricebook/internal/store"
	"github.com/pricebook/pricebook/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	layout, err := loadLayout(cfg)
	if err != nil {
		slog.Error("failed to load catalog layout", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog layout ready",
		"sentinel", layout.SectionSentinel,
		"min_fields", layout.MinFields,
	)

	formatter, err := currency.NewFormatter(cfg.Catalog.Locale, cfg.Catalog.Currency)
	if err != nil {
		slog.Error("failed to build currency formatter", "error", err)
		os.Exit(1)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	st := store.New(pool)
	if err := st.EnsureSchema(ctx); err != nil {
		slog.Error("failed to prepare database schema", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(cfg, st, catalog.NewParser(layout), formatter)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// loadLayout resolves the column layout: the built-in default, optionally
// replaced by a YAML file, with the sentinel overridable on its own.
func loadLayout(cfg *config.Config) (catalog.Layout, error) {
	layout := catalog.DefaultLayout()

	if cfg.Catalog.LayoutFile != "" {
		var err error
		layout, err = catalog.LoadLayout(cfg.Catalog.LayoutFile)
		if err != nil {
			return layout, err
		}
	}

	if cfg.Catalog.Sentinel != "" {
		layout.SectionSentinel = cfg.Catalog.Sentinel
	}

	return layout, layout.Validate()
}
