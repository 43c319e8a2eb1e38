package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TeraWattHour/go-authstore"
	"github.com/TeraWattHour/go-authstore/adapters"
	"github.com/TeraWattHour/go-authstore/internal/config"
	"github.com/TeraWattHour/go-authstore/internal/database"
	"github.com/TeraWattHour/go-authstore/metrics"
	"github.com/TeraWattHour/go-authstore/providers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofiber/fiber/v2/log"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(); err != nil {
		log.Errorf("authstore-example: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	setLogLevel(cfg.LogLevel)

	ctx := context.Background()

	adapter, closeStore, err := openAdapter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	auth := authstore.NewAuth(cfg.BasePath, metrics.Instrument(adapter, reg), enabledProviders(cfg), authstore.AuthOptions{
		Secret:       cfg.AuthSecret,
		CookieSecure: cfg.CookieSecure,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      newRouter(auth, reg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Infof("listening on %s (%s backend, %s)", server.Addr, cfg.StoreBackend, cfg.DatabaseDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("server listen error: %v", err)
		}
	}()

	<-stop
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func newRouter(auth *authstore.Auth, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(auth.Handlers)

	r.Handle("/metrics", metrics.Handler(gatherer))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello from /"))
	})

	r.With(auth.Middleware).Get("/protected", func(w http.ResponseWriter, r *http.Request) {
		pair, _ := authstore.SessionFromContext(r.Context())
		_, _ = w.Write([]byte("hello " + pair.User.Email))
	})

	return r
}

func openAdapter(ctx context.Context, cfg *config.Config) (authstore.Adapter, func(), error) {
	if cfg.StoreBackend == "sql" {
		db, err := database.OpenSQL(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, database.DefaultRetry)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() { _ = db.Close() }

		if cfg.DatabaseDriver == "postgres" {
			if cfg.AutoMigrate {
				if _, err := db.ExecContext(ctx, adapters.PostgresSchema); err != nil {
					closeDB()
					return nil, nil, err
				}
			}
			return adapters.NewPostgresAdapter(db), closeDB, nil
		}

		if cfg.AutoMigrate {
			if _, err := db.ExecContext(ctx, adapters.SQLiteSchema); err != nil {
				closeDB()
				return nil, nil, err
			}
		}
		return adapters.NewSQLiteAdapter(db), closeDB, nil
	}

	db, err := database.OpenGorm(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, cfg.LogLevel == "debug", database.DefaultRetry)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(adapters.Models()...); err != nil {
			closeDB()
			return nil, nil, err
		}
	}

	return adapters.NewGormAdapter(db), closeDB, nil
}

func enabledProviders(cfg *config.Config) []authstore.Provider {
	list := []authstore.Provider{providers.Email(nil)}

	if cfg.GoogleClientID != "" {
		list = append(list, providers.Google(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL))
	}
	if cfg.GithubClientID != "" {
		list = append(list, providers.Github(cfg.GithubClientID, cfg.GithubClientSecret))
	}

	return list
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(log.LevelDebug)
	case "warn":
		log.SetLevel(log.LevelWarn)
	case "error":
		log.SetLevel(log.LevelError)
	default:
		log.SetLevel(log.LevelInfo)
	}
}
