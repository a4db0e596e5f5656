package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"district-ai-portal/internal/config"
	pg "district-ai-portal/internal/infra/db/postgres"
	"district-ai-portal/internal/infra/logging"
	"district-ai-portal/internal/infra/metrics"
	rq "district-ai-portal/internal/infra/queue"
	red "district-ai-portal/internal/infra/redis"
	"district-ai-portal/internal/infra/sched"
	"district-ai-portal/internal/infra/web"
	"district-ai-portal/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	// ---- Repositories ----
	jobRepo := pg.NewJobRepo(pool)
	comparisonRepo := pg.NewComparisonRepo(pool)
	modelRepo := pg.NewModelConfigRepoCacheDecorator(pg.NewModelConfigRepo(pool), redisClient)

	// ---- Queue ----
	dispatcher := rq.NewRedisDispatcher(redisClient, cfg.Queue.Stream, cfg.Queue.SendTimeout, logger)

	// ---- Use cases ----
	jobUC := usecase.NewJobUseCase(jobRepo, modelRepo, dispatcher, cfg.Jobs.TTL, logger)
	compareUC := usecase.NewCompareUseCase(comparisonRepo, modelRepo, jobUC, dispatcher, logger)

	// ---- Expiry reaper ----
	reaper := sched.NewReaper(cfg.Jobs.ReaperInterval, jobRepo, logger)
	go func() {
		if err := reaper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("reaper stopped")
		}
	}()

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Auth.SessionSecret, cfg.Auth.CookieName, cfg.Auth.SessionTTL)
	server := web.NewServer(jobUC, compareUC, modelRepo, auth, logger)

	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	adminMux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	adminSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.AdminPort),
		Handler:           adminMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.AdminPort).Msg("admin server listening")
		if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("admin server")
		}
	}()
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("api server listening")
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("api server")
			cancel()
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = adminSrv.Shutdown(shutdownCtx)
}
