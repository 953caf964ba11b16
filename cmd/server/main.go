package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"tutupkas/backend/internal/cache"
	"tutupkas/backend/internal/config"
	"tutupkas/backend/internal/httpapi"
	"tutupkas/backend/internal/lock"
	"tutupkas/backend/internal/logging"
	"tutupkas/backend/internal/service"
	"tutupkas/backend/internal/store"
	"tutupkas/backend/internal/store/memory"
	pgstore "tutupkas/backend/internal/store/postgres"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logging.Configure(os.Stdout, cfg.LogLevel)
	log := logging.Module("server")
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.WithError(envErr).Warn("could not read .env file")
	}

	if err := validateSecurityConfig(cfg); err != nil {
		log.WithError(err).Fatal("invalid security configuration")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.WithError(err).Fatal("invalid business timezone")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo interface {
		store.Repository
		httpapi.UserStore
	}
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback")
		}
		if err := pg.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("postgres migration failed")
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Info("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		log.Info("repository: in-memory")
	}

	deps := service.Deps{Repo: repo}
	if cfg.RedisAddr != "" {
		client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := client.Ping(ctx).Err(); err != nil {
			// Without redis the closing lock and session versions are per process.
			log.WithError(err).Warn("redis unavailable, using in-process locks and sessions")
			_ = client.Close()
		} else {
			deps.Locker = lock.NewRedisLocker(client)
			deps.Stations = cache.NewRedisStationCache(client)
			deps.Sessions = cache.NewRedisSessionStore(client)
			closers = append(closers, client.Close)
			log.Info("coordination: redis")
		}
	} else {
		log.Info("coordination: in-process")
	}
	if deps.Sessions == nil {
		deps.Sessions = cache.NewMemorySessionStore()
	}

	svc := service.New(deps, service.Options{
		DefaultStoreID:      cfg.StoreID,
		Location:            loc,
		ShiftOpenScope:      cfg.ShiftOpenScope,
		StationAutoRegister: cfg.StationAutoRegister,
		StationCacheTTL:     cfg.StationCacheTTL(),
		ClosingLockTTL:      cfg.ClosingLockTTL(),
	})
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, cfg.StoreID, repo, deps.Sessions)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":     cfg.Address(),
			"timezone": loc.String(),
			"scope":    cfg.ShiftOpenScope,
		}).Info("closing backend listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown error")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.WithError(err).Error("close error")
		}
	}

	log.Info("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.AllowedOrigin == "*" {
		return fmt.Errorf("ALLOWED_ORIGIN must name an origin, not *")
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	return nil
}
