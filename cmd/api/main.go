package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Devansh-g1/CryptoGig/internal/api"
	"github.com/Devansh-g1/CryptoGig/internal/core/service"
	mongodb "github.com/Devansh-g1/CryptoGig/internal/infrastructure/db/mongo"
	redisdb "github.com/Devansh-g1/CryptoGig/internal/infrastructure/db/redis"
	"github.com/Devansh-g1/CryptoGig/internal/infrastructure/escrow"
	"github.com/Devansh-g1/CryptoGig/internal/infrastructure/mail"
	"github.com/Devansh-g1/CryptoGig/internal/infrastructure/queue"
	"github.com/Devansh-g1/CryptoGig/internal/pkg/config"
	"github.com/Devansh-g1/CryptoGig/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	userRepo := mongodb.NewUserRepository(db)
	channelRepo := mongodb.NewChannelRepository(db)
	jobRepo := mongodb.NewJobRepository(db)
	for _, ensure := range []func(context.Context) error{
		userRepo.EnsureIndexes,
		channelRepo.EnsureIndexes,
		jobRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Msg("index creation failed")
		}
	}

	// --- Collaborators ---
	tokenStore := redisdb.NewTokenStore(rdb)
	escrowClient := escrow.NewClient(cfg.Escrow.URL, cfg.Escrow.Timeout, log)

	mailQueue := queue.NewDispatcher(cfg.MailWorkers, mail.NewLogMailer(log), log)
	mailQueue.Start(ctx)

	// --- Services ---
	identityService := service.NewIdentityService(userRepo, tokenStore, mailQueue, cfg.JWTSecret, cfg.TokenTTL, cfg.VerifyTokenTTL, log)
	channelService := service.NewChannelService(channelRepo, userRepo, log)
	jobService := service.NewJobService(jobRepo, userRepo, escrowClient, log)

	// Sweep stale vote-kicks so abandoned votes don't pin quorum math.
	go func() {
		ticker := time.NewTicker(cfg.VoteTTL / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				swept, err := channelService.ExpireStaleVotes(ctx, cfg.VoteTTL)
				if err != nil {
					log.Error().Err(err).Msg("vote sweep failed")
					continue
				}
				if swept > 0 {
					log.Info().Int64("expired", swept).Msg("stale votes swept")
				}
			}
		}
	}()

	e := api.NewRouter(api.Deps{
		Identity:  identityService,
		Channels:  channelService,
		Jobs:      jobService,
		JWTSecret: cfg.JWTSecret,
		Mongo:     db,
		Redis:     rdb,
		Logger:    log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting api server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
