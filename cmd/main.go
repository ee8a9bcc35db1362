package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/karthikosa11/smartcal-nutrition-tracker/config"
	"github.com/karthikosa11/smartcal-nutrition-tracker/logger"
	"github.com/karthikosa11/smartcal-nutrition-tracker/routes"
	"github.com/karthikosa11/smartcal-nutrition-tracker/services"
	"github.com/karthikosa11/smartcal-nutrition-tracker/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := logger.Init(cfg.Server.Env, cfg.Server.Debug); err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if !cfg.Server.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg.Database)
	if err != nil {
		logger.Fatal("database init failed", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := services.NewRealtimeHub()

	// Optional integrations stay nil interfaces when unconfigured.
	var (
		gen      services.TextGenerator
		labels   services.LabelDetector
		uploader services.ImageUploader
		mailer   services.Mailer
		store    services.TokenStore
	)

	if cfg.Gemini.APIKey != "" {
		gen = services.NewGeminiService(cfg.Gemini.APIKey, cfg.Gemini.Model)
	} else {
		logger.Warn("GEMINI_API_KEY not set, AI estimates use the local parser")
	}

	if cfg.AWS.Region != "" {
		awsCfg, err := utils.LoadAWSConfig(ctx, cfg.AWS.Region)
		if err != nil {
			logger.Fatal("aws config", zap.Error(err))
		}
		labels = services.NewRekognitionService(awsCfg)

		if cfg.AWS.S3Bucket != "" {
			s3Cfg := awsCfg
			if cfg.AWS.S3Region != "" && cfg.AWS.S3Region != cfg.AWS.Region {
				if s3Cfg, err = utils.LoadAWSConfig(ctx, cfg.AWS.S3Region); err != nil {
					logger.Fatal("aws s3 config", zap.Error(err))
				}
			}
			uploader = utils.NewS3Uploader(s3Cfg, cfg.AWS.S3Bucket, cfg.AWS.CloudFrontURL)
		}
		if cfg.AWS.DigestEnabled && cfg.AWS.SESEmail != "" {
			mailer = utils.NewSESMailer(awsCfg, cfg.AWS.SESEmail)
		}
	}

	if cfg.Redis.Addr != "" {
		rs, err := services.NewRedisTokenStore(services.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal("redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer rs.Close()
		store = rs
	}

	tokens := utils.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.ExpiresIn)
	authSvc := services.NewAuthService(db, tokens, store)
	mealSvc := services.NewMealService(db, services.NewImageService(uploader), hub)
	statsSvc := services.NewStatsService(db, hub)
	estimator := services.NewEstimationService(gen, labels, nil)
	insights := services.NewInsightsService(mealSvc, gen)

	jobs := services.NewJobsService(statsSvc, services.NewDigestService(db, mailer), cfg.Jobs.StatsInterval)
	jobs.Start(ctx)

	router := routes.SetupRouter(routes.Deps{
		Auth:            authSvc,
		Meals:           mealSvc,
		Stats:           statsSvc,
		Estimator:       estimator,
		Insights:        insights,
		Hub:             hub,
		AllowedOrigins:  cfg.Server.AllowedOrigins(),
		AllowAllOrigins: cfg.Server.IsDevelopment(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	jobs.Stop()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server exited")
}
