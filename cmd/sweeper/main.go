package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clinistack/slot-engine/internal/config"
	"github.com/clinistack/slot-engine/internal/db"
	"github.com/clinistack/slot-engine/internal/logging"
	redisclient "github.com/clinistack/slot-engine/internal/redis"
	"github.com/clinistack/slot-engine/internal/slot"
)

// sweeper periodically retires Available slots whose date has passed,
// marking them Unavailable so they no longer show up in availability
// queries.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("sweeper", "dev")
		log.Fatal().Err(err).Msg("config load error")
	}

	logging.Setup("sweeper", cfg.Env)
	log.Info().Str("env", cfg.Env).Dur("interval", cfg.SweepInterval).Msg("sweeper starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()

	repo := slot.NewPgRepository(pgPool)
	locker := redisclient.NewSlotLocker(rdb, cfg.LockTTL)
	svc := slot.NewService(repo, locker, log.Logger)

	// Run once at startup
	runOnce(rootCtx, svc)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping sweeper")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc *slot.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	retired, err := svc.RetirePastSlots(runCtx)
	if err != nil {
		log.Error().Err(err).Msg("sweep run error")
		return
	}
	log.Info().Int64("retired", retired).Dur("took", time.Since(start)).Msg("sweep run complete")
}
