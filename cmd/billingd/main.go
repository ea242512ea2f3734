package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cable_billing_engine/internal/app"
	"cable_billing_engine/internal/domain/billing"
	"cable_billing_engine/internal/infra/config"
	idb "cable_billing_engine/internal/infra/database"
	"cable_billing_engine/internal/infra/httpapi"
	"cable_billing_engine/internal/infra/logger"
	"cable_billing_engine/internal/infra/scheduler"
	"cable_billing_engine/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	log := logger.Log.WithField("component", "main")
	log.WithFields(logrus.Fields{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
		"http_addr":   cfg.HTTPAddr,
	}).Info("Billing engine starting")

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := idb.Migrate(ctx, db); err != nil {
			cancel()
			log.Fatalf("Could not run migrations: %v", err)
		}
		cancel()
		log.Info("Database schema ensured")
	}

	// Repositories
	customerRepo := idb.NewPostgresCustomerRepository(db)
	packageRepo := idb.NewPostgresPackageRepository(db)
	bundleRepo := idb.NewPostgresBundleRepository(db)
	auditRepo := idb.NewPostgresAuditRepository(db)
	settingsRepo := idb.NewPostgresSettingsRepository(db)

	clock := billing.SystemClock{}
	auditRec := app.NewAuditRecorder(auditRepo, logger.Log.WithField("component", "audit"))

	// Optional Telegram operator channel
	var notifier app.Notifier = app.NopNotifier{Logger: logger.Log.WithField("component", "notifier")}
	var bot *telebot.Bot
	if cfg.TelegramToken != "" {
		pref := telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) {
				entry := logger.Log.WithField("component", "telebot").WithError(err)
				if c != nil && c.Sender() != nil {
					entry = entry.WithField("sender_id", c.Sender().ID)
				}
				entry.Error("Telegram handler error")
			},
		}
		bot, err = telebot.NewBot(pref)
		if err != nil {
			log.Fatalf("Could not create Telegram bot: %v", err)
		}
		notifier = telegram.NewOperatorNotifier(
			telegram.NewTelebotAdapter(bot),
			cfg.AdminTelegramID,
			logger.Log.WithField("component", "notifier"),
		)
		log.Info("Telegram operator channel configured")
	}

	// Services
	resetService := app.NewResetService(customerRepo, settingsRepo, auditRec, notifier, clock,
		logger.Log.WithField("component", "reset"))
	expireService := app.NewExpireService(customerRepo, auditRec, notifier, clock,
		logger.Log.WithField("component", "expire"))
	backupService := app.NewBackupService(customerRepo, packageRepo, bundleRepo, auditRec, clock,
		logger.Log.WithField("component", "backup"))
	eligibilityService := app.NewEligibilityService(customerRepo,
		logger.Log.WithField("component", "eligibility"))

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	if bot != nil {
		telegram.RegisterOperatorHandlers(rootCtx, bot, resetService, expireService,
			cfg.AdminTelegramID, logger.Log.WithField("component", "telegram"))
		go bot.Start()
		log.Info("Telegram operator handlers registered")
	}

	// Scheduler
	billingScheduler := scheduler.NewBillingScheduler(resetService, expireService,
		logger.Log.WithField("component", "scheduler"),
		cfg.CronSpecCycleCheck, cfg.CronSpecAutoExpire)
	if err := billingScheduler.Start(); err != nil {
		log.Fatalf("Could not start scheduler: %v", err)
	}

	// HTTP API
	handlers := httpapi.NewHandlers(resetService, expireService, backupService,
		eligibilityService, auditRec, logger.Log.WithField("component", "httpapi"))
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(handlers),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	rootCancel()
	billingScheduler.Stop()
	if bot != nil {
		bot.Stop()
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	log.Info("Shut down gracefully")
}
