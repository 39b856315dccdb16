package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loyalty-subscription-core/internal/config"
	pg "loyalty-subscription-core/internal/infra/db/postgres"
	"loyalty-subscription-core/internal/infra/logging"
	"loyalty-subscription-core/internal/infra/metrics"
	red "loyalty-subscription-core/internal/infra/redis"
	"loyalty-subscription-core/internal/infra/sched"
	"loyalty-subscription-core/internal/infra/web"
	"loyalty-subscription-core/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logging, relaxed auth TTL)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	ledgerCache := red.NewLedgerCache(redisClient, cfg.Redis.CacheTTL)

	// ---- Repositories ----
	codeRepo := pg.NewValidationCodeRepo(pool)
	ledgerRepo := pg.NewLedgerRepo(pool)
	recordRepo := pg.NewValidationRecordRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Use cases ----
	issuerUC := usecase.NewIssuerUseCase(codeRepo, cfg.Codes.TTL, logger)
	validatorUC := usecase.NewValidatorUseCase(codeRepo, ledgerRepo, ledgerCache, logger)
	redeemerUC := usecase.NewRedeemerUseCase(codeRepo, ledgerRepo, recordRepo, txManager, logger)
	historyUC := usecase.NewHistoryUseCase(recordRepo, logger)

	// ---- HTTP server ----
	authTTL := 24 * time.Hour
	if cfg.Runtime.Dev {
		authTTL = 30 * 24 * time.Hour
	}
	authManager := web.NewAuthManager(cfg.Auth.JWTSecret, authTTL)

	srv := web.NewServer(
		issuerUC, validatorUC, redeemerUC, historyUC,
		authManager,
		rateLimiter,
		web.IssueLimit{Limit: cfg.Codes.IssueLimit, Window: cfg.Codes.IssueLimitWindow},
		pool, redisClient,
		cfg.Server.RequestTimeout,
		logger,
	)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Routes(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Expired-code GC worker ----
	gcWorker := sched.NewCodeGCWorker(cfg.Codes.GCInterval, issuerUC, logger)
	go func() { _ = gcWorker.Run(ctx) }()

	// ---- DB pool stats sampler ----
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
