package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rsmedika/consent-api/config"
	approvalHandler "github.com/rsmedika/consent-api/internal/handler/approval"
	authHandler "github.com/rsmedika/consent-api/internal/handler/auth"
	patientHandler "github.com/rsmedika/consent-api/internal/handler/patient"
	settingsHandler "github.com/rsmedika/consent-api/internal/handler/settings"
	userHandler "github.com/rsmedika/consent-api/internal/handler/user"
	"github.com/rsmedika/consent-api/internal/middleware"
	"github.com/rsmedika/consent-api/internal/repository/postgres"
	"github.com/rsmedika/consent-api/internal/router"
	authService "github.com/rsmedika/consent-api/internal/service/auth"
	patientService "github.com/rsmedika/consent-api/internal/service/patient"
	settingsService "github.com/rsmedika/consent-api/internal/service/settings"
	userService "github.com/rsmedika/consent-api/internal/service/user"
	"github.com/rsmedika/consent-api/pkg/auth"
	"github.com/rsmedika/consent-api/pkg/logger"
	"github.com/rsmedika/consent-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)

	// Shared primitives
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	hasher := security.NewBcryptHasher(12)

	// Services
	authSvc := authService.NewService(userRepo, jwtSvc, hasher)
	userSvc := userService.NewService(userRepo, hasher)
	patientSvc := patientService.NewService(patientRepo)
	settingsSvc := settingsService.NewService(settingsRepo)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	// Handlers
	authH := authHandler.NewHandler(authSvc)
	approvalH := approvalHandler.NewHandler(patientSvc)
	patientH := patientHandler.NewHandler(patientSvc, authMiddleware)
	userH := userHandler.NewHandler(userSvc, authMiddleware)
	settingsH := settingsHandler.NewHandler(settingsSvc)

	r := router.NewRouter(
		router.Config{
			RateLimit: middleware.RateLimiterConfig{
				RPS:   cfg.RateLimit.RPS,
				Burst: cfg.RateLimit.Burst,
			},
			CORS:          middleware.DefaultCORSConfig(),
			MetricsPrefix: "consent_api",
		},
		authMiddleware,
		db,
		[]router.Handler{authH, approvalH},
		[]router.Handler{patientH, userH, settingsH},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
