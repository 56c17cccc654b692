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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/VoiceRelay/internal/adapters/http"
	"github.com/dkeye/VoiceRelay/internal/app"
	"github.com/dkeye/VoiceRelay/internal/app/orch"
	"github.com/dkeye/VoiceRelay/internal/auth"
	"github.com/dkeye/VoiceRelay/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	var revoked auth.RevocationList
	if cfg.Revocation.RedisAddr != "" {
		client, err := auth.ConnectRedis(ctx, cfg.Revocation.RedisAddr, cfg.Revocation.Password, cfg.Revocation.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect revocation store")
		}
		defer client.Close()
		revoked = auth.NewRedisRevocationList(client, cfg.Revocation.Key)
	}

	verifier, err := auth.NewJWTVerifier(cfg.JWTKey, revoked)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build token verifier")
	}

	o := orch.New(verifier, app.SimplePolicy{}, orch.Options{
		Debug:             cfg.Debug,
		AuthURL:           cfg.AuthURL,
		ICEServers:        cfg.WebRTCICEServers(),
		MaxRoomsPerUser:   cfg.Rooms.MaxPerUser,
		HeartbeatInterval: cfg.Heartbeat.Interval,
	})

	r := router.SetupRouter(ctx, cfg, o)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Voice relay started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return o.RunHeartbeat(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}
