package main

import (
	"context"

	api "email-insight-backend/cmd/api"
	preferencesDomain "email-insight-backend/internal/preferences/domain"
	preferencesRepo "email-insight-backend/internal/preferences/repository"
	preferencesUsecase "email-insight-backend/internal/preferences/usecase"
	"email-insight-backend/pkg/config"
	"email-insight-backend/pkg/database"
	"email-insight-backend/pkg/firebase"
	"email-insight-backend/pkg/gmail"
	"email-insight-backend/pkg/imap"
	"email-insight-backend/pkg/logger"

	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Initialize preferences store
	kbRepo := newKnowledgeBaseRepository(cfg, log)

	// Initialize mailbox services
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, log)
	imapService := imap.NewService(imap.Config{
		Host:     cfg.IMAPHost,
		Port:     cfg.IMAPPort,
		Username: cfg.IMAPUsername,
		SMTPHost: cfg.SMTPHost,
		SMTPPort: cfg.SMTPPort,
	}, log)

	// Initialize use cases (dependency injection)
	prefUc := preferencesUsecase.NewPreferencesUsecase(kbRepo, log)

	// Initialize HTTP handler
	handler, err := api.NewHandler(prefUc, gmailService, imapService, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize handler")
	}

	// Start server
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}

func newKnowledgeBaseRepository(cfg *config.Config, log *logrus.Logger) preferencesRepo.KnowledgeBaseRepository {
	entry := log.WithField("store", cfg.PreferencesStore)

	switch cfg.PreferencesStore {
	case config.StorePostgres:
		db, err := database.NewPostgresConnection(cfg)
		if err != nil {
			entry.WithError(err).Fatal("Failed to connect to database")
		}
		// Auto-migrate database schemas
		if err := db.AutoMigrate(&preferencesDomain.KnowledgeBase{}); err != nil {
			entry.WithError(err).Fatal("Failed to migrate database")
		}
		entry.Info("preferences stored in postgres")
		return preferencesRepo.NewKnowledgeBaseRepository(db)

	case config.StoreFirestore:
		client, err := firebase.NewFirestoreClient(context.Background(), cfg.FirebaseCredentials, cfg.FirebaseProjectID, log)
		if err != nil {
			entry.WithError(err).Fatal("Failed to initialize firestore")
		}
		entry.Info("preferences stored in firestore")
		return preferencesRepo.NewFirestoreKnowledgeBaseRepository(client)

	default:
		entry.Warn("preferences kept in memory and lost on restart")
		return preferencesRepo.NewMemoryKnowledgeBaseRepository()
	}
}
