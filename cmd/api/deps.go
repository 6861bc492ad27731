package main

import (
	"context"
	"log"

	"centavo/internal/domain/notification"
	"centavo/internal/domain/plaidsync"
	"centavo/internal/domain/transaction"
	"centavo/internal/infrastructure/firebase"
	"centavo/internal/infrastructure/plaid"
	"centavo/internal/infrastructure/postgres"
	httphandlers "centavo/internal/interfaces/http"
	"centavo/internal/shared/auth"
	"centavo/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	ItemHandler         *httphandlers.ItemHandler
	AccountHandler      *httphandlers.AccountHandler
	TransactionHandler  *httphandlers.TransactionHandler
	SyncHandler         *httphandlers.SyncHandler
	NotificationHandler *httphandlers.NotificationHandler

	// Auth
	TokenVerifier *auth.TokenVerifier

	// For the scheduler job provider
	SyncService *plaidsync.Service
	ItemRepo    *postgres.ItemRepository
}

// NewDependencies wires up the application.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	itemRepo := postgres.NewItemRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	deviceTokenRepo := postgres.NewDeviceTokenRepository(db)

	// Push notifications are optional: without Firebase credentials the
	// notification service runs with no messenger and sends nothing.
	var messenger notification.Messenger
	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := firebase.NewClient(ctx, cfg.Firebase.CredentialsFile, deviceTokenRepo.Deactivate)
		if err != nil {
			log.Printf("Warning: Firebase init failed, push notifications disabled: %v", err)
		} else {
			messenger = fcm
		}
	}
	notificationService := notification.NewService(deviceTokenRepo, messenger)

	plaidClient := plaid.NewClient(cfg.Plaid.BaseURL, cfg.Plaid.ClientID, cfg.Plaid.Secret)
	syncEngine := plaidsync.NewTransactionSyncEngine(
		plaidClient, accountRepo, transactionRepo, notificationService, cfg.Plaid.BackfillStartDate)
	syncService := plaidsync.NewService(syncEngine, itemRepo, notificationService)

	splitService := transaction.NewSplitService(transactionRepo)

	return &Dependencies{
		DB:                  db,
		ItemHandler:         httphandlers.NewItemHandler(itemRepo),
		AccountHandler:      httphandlers.NewAccountHandler(accountRepo),
		TransactionHandler:  httphandlers.NewTransactionHandler(transactionRepo, splitService),
		SyncHandler:         httphandlers.NewSyncHandler(syncService),
		NotificationHandler: httphandlers.NewNotificationHandler(notificationService),
		TokenVerifier:       auth.NewTokenVerifier(cfg.Auth.APITokenHash),
		SyncService:         syncService,
		ItemRepo:            itemRepo,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
