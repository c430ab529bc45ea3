package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"item-catalog/internal/config"
	"item-catalog/internal/handler"
	"item-catalog/internal/logger"
	"item-catalog/internal/middleware"
	"item-catalog/internal/notify"
	"item-catalog/internal/repository"
	"item-catalog/internal/service"
	"item-catalog/internal/session"
	"item-catalog/internal/view"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Format:      cfg.Log.Format,
		Environment: cfg.Server.Environment,
		Level:       cfg.Log.Level,
	})
	slog.SetDefault(log)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("catalog stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	db, err := repository.NewDB(cfg.Database.URL, log)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	seeded, err := repository.SeedCategories(ctx, db, cfg.Catalog.SeedCategories)
	if err != nil {
		return err
	}
	if seeded > 0 {
		log.Info("categories seeded", slog.Int("count", seeded))
	}

	oauthCfg, err := cfg.OAuth.OAuth2()
	if err != nil {
		return err
	}

	var notifier service.Notifier = notify.Nop{}
	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
		if err != nil {
			return err
		}
		notifier = tg
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	itemRepo := repository.NewItemRepository(db)

	catalogSvc := service.NewCatalogService(categoryRepo, itemRepo, userRepo, notifier, cfg.Catalog.RecentItems, log)
	authSvc := service.NewAuthService(oauthCfg, service.AuthEndpoints{
		UserInfoURL: cfg.OAuth.UserInfoURL,
		RevokeURL:   cfg.OAuth.RevokeURL,
	}, userRepo, log)

	if cfg.Telegram.Enabled() {
		scheduler, err := startDigest(cfg.Telegram, service.NewDigestService(itemRepo, notifier, time.Now(), log), log)
		if err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	if cfg.Session.Secret == "" {
		log.Warn("session.secret not set, sessions will not survive a restart")
	}
	sessions := session.NewManager(session.NewCookieStore(session.Options{
		Secret: cfg.Session.Secret,
		MaxAge: cfg.Session.MaxAge,
		Secure: cfg.Session.Secure,
	}), cfg.Session.Name, log)

	views, err := view.New()
	if err != nil {
		return err
	}

	h := handler.New(catalogSvc, authSvc, sessions, views, sqlDB.PingContext, log)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics())
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Mount("/", h.Routes())

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("addr", srv.Addr), slog.String("environment", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// startDigest schedules the digest at the daily time when one is set,
// otherwise every DigestInterval. A zero interval disables it.
func startDigest(cfg config.TelegramConfig, digest *service.DigestService, log *slog.Logger) (*service.SchedulerService, error) {
	scheduler := service.NewSchedulerService(time.Local, log)
	switch {
	case cfg.DigestTime != "":
		if _, err := scheduler.ScheduleDaily("digest", cfg.DigestTime, digest.Send); err != nil {
			return nil, err
		}
	case cfg.DigestInterval > 0:
		if _, err := scheduler.ScheduleInterval("digest", cfg.DigestInterval, digest.Send); err != nil {
			return nil, err
		}
	}
	scheduler.Start()
	log.Info("digest scheduler started", slog.Int("jobs", scheduler.Len()))
	return scheduler, nil
}
