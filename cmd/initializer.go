package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"doulaBack/internal/billing/jobs"
	"doulaBack/internal/billing/quickbooks"
	"doulaBack/internal/billing/stripepay"
	"doulaBack/internal/config"
	"doulaBack/internal/handlers"
	"doulaBack/internal/repositories"
	"doulaBack/internal/services"
	"doulaBack/utils"
)

// jobQueue is the side-effect queue the application starts and stops.
type jobQueue interface {
	jobs.Enqueuer
	Start(ctx context.Context)
	Stop()
}

type application struct {
	logger   *slog.Logger
	errorLog *log.Logger
	infoLog  *log.Logger
	db       *repositories.DB
	redis    *redis.Client
	queue    jobQueue
	tokens   *utils.Manager

	paymentService *services.PaymentService

	paymentHandler  *handlers.PaymentHandler
	reminderHandler *handlers.ReminderHandler
	stripeHandler   *handlers.StripeHandler
	contractHandler *handlers.ContractHandler
	clientHandler   *handlers.ClientHandler
}

func initializeApp(cfg config.Config, db *repositories.DB, logger *slog.Logger, infoLog, errorLog *log.Logger) (*application, error) {
	tokens, err := utils.NewManager(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	var stripeClient *stripepay.Client
	if cfg.StripeEnabled() {
		stripeClient = stripepay.NewClient(stripepay.Config{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			Currency:      cfg.Stripe.Currency,
			Logger:        logger,
		})
	} else {
		logger.Warn("stripe is not configured, payment intents and webhooks are disabled")
	}

	qbCfg := quickbooks.Config{
		ClientID:      cfg.QuickBooks.ClientID,
		ClientSecret:  cfg.QuickBooks.ClientSecret,
		RefreshToken:  cfg.QuickBooks.RefreshToken,
		RealmID:       cfg.QuickBooks.RealmID,
		BaseURL:       cfg.QuickBooks.BaseURL,
		ServiceItemID: cfg.QuickBooks.ServiceItemID,
		Logger:        logger,
	}
	var qb services.QuickBooksAPI
	if qbCfg.Enabled() {
		client, err := quickbooks.NewClient(qbCfg)
		if err != nil {
			return nil, fmt.Errorf("quickbooks: %w", err)
		}
		qb = client
	}

	var docs services.DocumentStore
	if cfg.StorageEnabled() {
		storage, err := utils.NewStorage(utils.StorageConfig{
			Endpoint:  cfg.Storage.Endpoint,
			Region:    cfg.Storage.Region,
			Bucket:    cfg.Storage.Bucket,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		docs = storage
	}

	// Services
	paymentService := services.NewPaymentService(db, logger)
	paymentService.ReminderLeadDays = cfg.Maintenance.ReminderLeadDays
	paymentService.EventRetention = time.Duration(cfg.Maintenance.EventRetentionDays) * 24 * time.Hour
	scheduleService := services.NewPaymentScheduleService(db)
	sideEffects := services.NewSideEffectService(db, qb, cfg.Stripe.Currency, logger)

	app := &application{
		logger:         logger,
		errorLog:       errorLog,
		infoLog:        infoLog,
		db:             db,
		tokens:         tokens,
		paymentService: paymentService,
	}

	opts := jobs.Options{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
	}
	if cfg.Redis.Addr != "" {
		app.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		app.queue = jobs.NewRedisQueue(app.redis, sideEffects.Handlers(), opts, logger)
	} else {
		logger.Info("redis is not configured, side effects run on the in-process queue")
		app.queue = jobs.NewLocalQueue(sideEffects.Handlers(), opts, logger)
	}

	reconciliation := services.NewReconciliationService(db, paymentService, app.queue, logger)
	reconciliation.QuickBooksEnabled = qb != nil

	var provider services.StripeProvider
	var verifier handlers.WebhookVerifier
	if stripeClient != nil {
		provider = stripeClient
		verifier = stripeClient
	}
	stripeService := services.NewStripePaymentService(db, provider, logger)

	// Handlers
	app.paymentHandler = handlers.NewPaymentHandler(scheduleService, paymentService)
	app.reminderHandler = handlers.NewReminderHandler(services.NewReminderService(db))
	app.stripeHandler = handlers.NewStripeHandler(verifier, stripeService, reconciliation, logger)
	app.contractHandler = handlers.NewContractHandler(services.NewContractService(db, docs, logger))
	app.clientHandler = handlers.NewClientHandler(services.NewClientService(db))

	return app, nil
}

func (app *application) close() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("close redis", "error", err)
		}
	}
}
