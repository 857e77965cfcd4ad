package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"outreach-platform/internal/agent"
	"outreach-platform/internal/audit"
	"outreach-platform/internal/auth"
	"outreach-platform/internal/campaign"
	"outreach-platform/internal/config"
	"outreach-platform/internal/httpapi"
	"outreach-platform/internal/reporting"
	"outreach-platform/internal/scheduler"
	"outreach-platform/internal/telephony"
	"outreach-platform/pkg/logger"
	"outreach-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	provider, err := telephony.NewTwilioProvider(telephony.TwilioConfig{
		AccountSID:            cfg.Twilio.AccountSID,
		AuthToken:             cfg.Twilio.AuthToken,
		StatusCallbackBaseURL: cfg.Twilio.PublicBaseURL,
		MachineDetection:      true,
	})
	if err != nil {
		log.Error("twilio init failed", "err", err)
		os.Exit(1)
	}

	trigger := scheduler.NewRedisTrigger(rdb)
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	agentSvc := agent.NewService(agent.NewPostgresRepo(db))
	attemptRepo := reporting.NewPostgresRepo(db)

	campaignSvc := campaign.NewService(
		campaign.NewPostgresStore(db),
		agentSvc,
		provider,
		trigger,
		campaign.Options{
			AdvanceDelay: cfg.Campaign.AdvanceDelay,
			DefaultRetry: campaign.RetryPolicy{
				MaxAttempts: cfg.Campaign.MaxAttempts,
				RetryDelay:  cfg.Campaign.RetryDelay,
			},
			Attempts: attemptRepo,
			Audit:    auditSvc,
		},
	)
	reportSvc := reporting.NewService(attemptRepo)

	// Scheduler: drains due advance triggers and runs the stall sweep.
	poller := scheduler.NewPoller(trigger, campaignSvc, log,
		cfg.Campaign.PollInterval, cfg.Campaign.SweepInterval)
	go poller.Run(logger.With(rootCtx, log))

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	h := httpapi.Handlers{
		Auth:      authManager,
		Campaigns: campaignSvc,
		Agents:    agentSvc,
		Reports:   reportSvc,
	}
	registerRoutes(r, auth.RequireAccessToken(authManager), h, campaignSvc)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
