package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sealdesk/sealdesk/internal/api"
	"github.com/sealdesk/sealdesk/internal/billing"
	"github.com/sealdesk/sealdesk/internal/config"
	"github.com/sealdesk/sealdesk/internal/db"
	"github.com/sealdesk/sealdesk/internal/mailer"
	"github.com/sealdesk/sealdesk/internal/metrics"
	"github.com/sealdesk/sealdesk/internal/queue"
	"github.com/sealdesk/sealdesk/internal/repository"
	"github.com/sealdesk/sealdesk/internal/service"
	"github.com/sealdesk/sealdesk/internal/storage"
	"github.com/sealdesk/sealdesk/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	q := queue.New()

	users := repository.NewPgUserRepository(pool)
	templates := repository.NewPgTemplateRepository(pool)
	submissions := repository.NewPgSubmissionRepository(pool)
	payments := repository.NewPgPaymentRepository(pool)
	subscriptions := repository.NewPgSubscriptionRepository(pool)

	var sender mailer.Sender
	if cfg.PostmarkServerToken != "" {
		sender, err = mailer.NewPostmarkSender(cfg.PostmarkServerToken, cfg.PostmarkAccountToken, cfg.EmailFrom)
		if err != nil {
			logger.Fatal("failed to init postmark sender", zap.Error(err))
		}
	} else {
		logger.Warn("no postmark token set, emails are logged only")
		sender = mailer.NewDevSender(logger)
	}
	mail := mailer.NewTemplateMailer(sender, cfg.BaseURL)

	var blobs storage.Storage
	switch cfg.StorageDriver {
	case "s3":
		blobs, err = storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:         cfg.S3Bucket,
			Region:         cfg.S3Region,
			AccessKeyID:    cfg.S3AccessKeyID,
			SecretKey:      cfg.S3SecretKey,
			Endpoint:       cfg.S3Endpoint,
			ForcePathStyle: cfg.S3UsePathStyle,
		})
	default:
		blobs, err = storage.NewLocalStorage(cfg.StorageDir)
	}
	if err != nil {
		logger.Fatal("failed to init blob storage", zap.Error(err))
	}

	authSvc := service.NewAuthService(users, mail, cfg.JWTSecret, cfg.TokenTTL, logger)
	templateSvc := service.NewTemplateService(templates, blobs, logger)
	submissionSvc := service.NewSubmissionService(submissions, templates, q, mail, logger)
	webhooks := billing.NewWebhookProcessor(subscriptions, cfg.BillingWebhookSecret, logger)

	// ---- background workers ----
	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	onPersisted, onFailed, onCycle := m.ProcessorHooks()
	processor := worker.NewBatchProcessor(q, payments, cfg.ProcessorIdleInterval, cfg.PerBatchConcurrency, logger, worker.MetricHooks{
		OnPersisted: onPersisted,
		OnFailed:    onFailed,
		OnCycle:     onCycle,
	})
	processor.Start(workerCtx)

	reminders := worker.NewReminderScheduler(
		submissions, mail,
		cfg.ReminderInterval, cfg.ReminderCooldown, cfg.ReminderSendsPerSecond,
		logger, m.ReminderHook(),
	)
	go reminders.Run(workerCtx)

	// Queue depth gauge, sampled once a second.
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				m.QueueDepth.Set(float64(q.Len()))
			}
		}
	}()

	// ---- HTTP server ----
	router := api.NewRouter(api.Deps{
		Auth:        authSvc,
		Templates:   templateSvc,
		Submissions: submissionSvc,
		Billing:     webhooks,
		Queue:       q,
		Registry:    reg,
		JWTSecret:   cfg.JWTSecret,
		Logger:      logger,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Signal the background workers to stop.
	cancelWorkers()

	// 3. Wait for the batch processor to finish its in-flight cycle.
	processor.Wait()

	logger.Info("server stopped cleanly")
}
