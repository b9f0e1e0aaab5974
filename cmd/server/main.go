package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tajious/rollcall/internal/api"
	"github.com/tajious/rollcall/internal/config"
	"github.com/tajious/rollcall/internal/middleware"
	"github.com/tajious/rollcall/internal/otp"
	"github.com/tajious/rollcall/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if level, err := zerolog.ParseLevel(cfg.Server.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	store, err := storage.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	ctx := context.Background()

	if admin, err := api.Seed(ctx, store, cfg.Seed); err != nil {
		return fmt.Errorf("seed: %w", err)
	} else if admin != nil {
		log.Info().Str("mobile", admin.Mobile).Msg("admin user ready")
	}

	var (
		otpStore  otp.Store                  = otp.NewMemoryStore()
		rateStore middleware.RateLimitStore = middleware.NewMemoryStore()
	)
	if cfg.Redis.Host != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		otpStore = otp.NewRedisStore(redisClient)
		rateStore = middleware.NewRedisStore(redisClient)
	}

	var sender otp.Sender = otp.NewLogSender(log.Logger)
	if cfg.Twilio.AccountSID != "" && cfg.Twilio.FromNumber != "" {
		sender = otp.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, cfg.Twilio.CountryCode)
	} else {
		log.Warn().Msg("twilio not configured, OTP messages will be logged")
	}

	app := api.New(api.Deps{
		Config:  cfg,
		Storage: store,
		OTP: otp.NewService(otpStore, sender, otp.Config{
			Length:      cfg.OTP.Length,
			TTL:         cfg.OTP.TTL,
			VerifiedTTL: cfg.OTP.VerifiedTTL,
		}),
		RateStore: rateStore,
		Log:       log.Logger,
		AccessLog: true,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("env", cfg.Server.Environment).Msg("server listening")
		errCh <- app.Listen(":" + cfg.Server.Port)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
