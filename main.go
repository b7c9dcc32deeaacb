package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/cardmatch/internal/game"
	"github.com/robalobadob/cardmatch/internal/httpserver"
	"github.com/robalobadob/cardmatch/internal/store"
	"github.com/robalobadob/cardmatch/internal/symbols"
	"github.com/robalobadob/cardmatch/internal/workers"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := symbols.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load symbol alphabets")
	}

	db, err := openMigrated(getEnv("DB_PATH", "./data/cardmatch.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	backend := getEnv("SAVE_BACKEND", "sqlite")
	st, err := store.Open(backend, store.Options{
		DB:        db,
		Dir:       getEnv("SAVE_DIR", "./data/saves"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
	})
	if err != nil {
		log.Fatal().Err(err).Str("backend", backend).Msg("failed to open save store")
	}

	var wg sync.WaitGroup
	workerCtx, stopWorker := context.WithCancel(context.Background())
	if envBool("SAVE_ASYNC", false) {
		w := workers.NewSaveWorker(workers.NewSaveWorkerOptions{Store: st, Interval: 2 * time.Second})
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Start(workerCtx)
		}()
		st = w
	}

	cfg := game.DefaultConfig()
	cfg.Slots = envInt("BOARD_SLOTS", cfg.Slots)
	cfg.PointsPerMatch = envInt("POINTS_PER_MATCH", cfg.PointsPerMatch)
	cfg.BonusPerRemainingTurn = envInt("BONUS_PER_TURN", cfg.BonusPerRemainingTurn)
	cfg.Seed = int64(envInt("SEED", 0))

	srv := httpserver.New(httpserver.Options{
		Store:     st,
		DB:        db,
		Catalog:   cat,
		Config:    cfg,
		DailySalt: getEnv("DAILY_SALT", "local_dev_salt"),
		JWTSecret: getEnv("JWT_SECRET", "dev_secret_change_me"),
	})

	idle, err := time.ParseDuration(getEnv("SESSION_IDLE", "30m"))
	if err != nil || idle <= 0 {
		log.Fatal().Err(err).Str("value", os.Getenv("SESSION_IDLE")).Msg("invalid SESSION_IDLE")
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		srv.EvictIdleSessions(workerCtx, idle, time.Minute)
	}()

	port := getEnv("PORT", "5175")
	httpSrv := &http.Server{Addr: ":" + port, Handler: srv.Router(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("port", port).Str("backend", backend).Int("slots", cfg.Slots).Msg("starting cardmatch server")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	stopWorker()
	wg.Wait()
	if err := st.Close(); err != nil {
		log.Warn().Err(err).Msg("close save store")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}

func envBool(k string, def bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(k)); err == nil {
		return b
	}
	return def
}
