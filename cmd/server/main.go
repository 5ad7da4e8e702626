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

	"github.com/ikkim/captains-log/config"
	"github.com/ikkim/captains-log/internal/app/controller"
	"github.com/ikkim/captains-log/internal/app/prompt"
	"github.com/ikkim/captains-log/internal/app/repository"
	"github.com/ikkim/captains-log/internal/app/service"
	"github.com/ikkim/captains-log/internal/db"
	"github.com/ikkim/captains-log/internal/middleware"
	"github.com/ikkim/captains-log/internal/router"
	"github.com/ikkim/captains-log/internal/scheduler"
	"github.com/ikkim/captains-log/pkg/logger"
	"github.com/ikkim/captains-log/pkg/mail"
	appRedis "github.com/ikkim/captains-log/pkg/redis"
	"github.com/ikkim/captains-log/pkg/util"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting Captain's Log server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Without Redis, logout cannot revoke tokens before they expire.
	var (
		revoker service.TokenRevoker
		checker middleware.RevocationChecker
	)
	if cfg.Redis.Enabled {
		rdb, err := appRedis.Init(&cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, token revocation disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			blacklist := appRedis.NewTokenBlacklist(rdb)
			revoker, checker = blacklist, blacklist
		}
		defer func() {
			if err := appRedis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
	}

	conn := db.GetDB()

	userRepo := repository.NewUserRepository(conn)
	planetRepo := repository.NewPlanetRepository(conn)
	discoveryRepo := repository.NewDiscoveryRepository(conn)

	authService := service.NewAuthService(
		userRepo,
		revoker,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RememberTokenExpiry,
	)
	passwordResetService := service.NewPasswordResetService(
		conn,
		userRepo,
		util.NewResetTokenSigner(cfg.Reset.Secret, cfg.Reset.MaxAge),
		mail.NewSender(cfg.Mail),
		cfg.Server.BaseURL,
	)
	explorationService := service.NewExplorationService(conn, userRepo, planetRepo, discoveryRepo, prompt.NewGenerator())
	archiveService := service.NewArchiveService(conn, planetRepo, discoveryRepo)
	logbookService := service.NewLogbookService(conn, planetRepo, discoveryRepo)

	authController := controller.NewAuthController(authService, passwordResetService)
	explorationController := controller.NewExplorationController(explorationService)
	archiveController := controller.NewArchiveController(archiveService, logbookService)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, checker)

	r := router.NewRouter(
		authController,
		explorationController,
		archiveController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	purgeScheduler := scheduler.NewResetTokenScheduler(passwordResetService, cfg.Reset.PurgeSchedule)
	if err := purgeScheduler.Start(); err != nil {
		logger.Fatal("Failed to start reset token scheduler", err)
	}
	defer purgeScheduler.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shut down", err)
		return
	}

	logger.Info("Server stopped successfully")
}
