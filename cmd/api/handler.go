package api

import (
	"context"

	inboxDelivery "email-insight-backend/internal/inbox/delivery"
	inboxUsecase "email-insight-backend/internal/inbox/usecase"
	preferencesDelivery "email-insight-backend/internal/preferences/delivery"
	preferencesUsecase "email-insight-backend/internal/preferences/usecase"
	sessionDelivery "email-insight-backend/internal/session/delivery"
	sessionDomain "email-insight-backend/internal/session/domain"
	sessionUsecase "email-insight-backend/internal/session/usecase"
	"email-insight-backend/pkg/ai"
	"email-insight-backend/pkg/config"
	"email-insight-backend/pkg/gmail"
	"email-insight-backend/pkg/imap"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	sessionUsecase     sessionUsecase.SessionUsecase
	sessionHandler     *sessionDelivery.SessionHandler
	inboxHandler       *inboxDelivery.InboxHandler
	preferencesHandler *preferencesDelivery.PreferencesHandler
	settingsHandler    *SettingsHandler
	config             *config.Config
	logger             logrus.FieldLogger
}

func NewHandler(prefUc preferencesUsecase.PreferencesUsecase, gmailService *gmail.Service, imapService *imap.Service, cfg *config.Config, logger logrus.FieldLogger) (*Handler, error) {
	// Ollama endpoint shared with the settings API for runtime updates
	ollamaSettings := ai.NewOllamaSettings(cfg.OllamaBaseURL, cfg.OllamaModel)

	aiCfg := ai.DynamicConfig{
		Provider:      ai.ProviderType(cfg.AIProvider),
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIModel:   cfg.OpenAIModel,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		GeminiAPIKey:  cfg.GeminiApiKey,
		Ollama:        ollamaSettings,
	}
	enricher, err := ai.NewEnrichmentService(aiCfg, logger)
	if err != nil {
		return nil, err
	}
	logger.WithField("provider", cfg.AIProvider).Info("AI service initialized (dynamic config enabled)")

	connectors := map[sessionDomain.Provider]sessionUsecase.MailboxConnector{
		sessionDomain.ProviderGmail: sessionUsecase.NewGmailConnector(gmailService),
	}
	if cfg.IMAPHost != "" {
		connectors[sessionDomain.ProviderIMAP] = sessionUsecase.NewIMAPConnector(imapService)
	} else {
		logger.Warn("IMAP_HOST not set, IMAP sessions are disabled")
	}

	sessionUc := sessionUsecase.NewSessionUsecase(connectors, enricher, sessionUsecase.Config{
		JWTSecret: cfg.JWTSecret,
		Expiry:    cfg.SessionExpiry,
		Pipeline: inboxUsecase.PipelineConfig{
			PageSize:        cfg.PageSize,
			Concurrency:     cfg.FetchConcurrency,
			ListTimeout:     cfg.ListTimeout,
			FetchTimeout:    cfg.FetchTimeout,
			ClassifyTimeout: cfg.ClassifyTimeout,
		},
		Reply: inboxUsecase.ReplyConfig{
			DraftTimeout: cfg.ClassifyTimeout,
			SendTimeout:  cfg.SendTimeout,
		},
	}, logger)

	return &Handler{
		sessionUsecase:     sessionUc,
		sessionHandler:     sessionDelivery.NewSessionHandler(sessionUc),
		inboxHandler:       inboxDelivery.NewInboxHandler(prefUc),
		preferencesHandler: preferencesDelivery.NewPreferencesHandler(prefUc, sessionUc, logger),
		settingsHandler:    NewSettingsHandler(ollamaSettings, logger),
		config:             cfg,
		logger:             logger,
	}, nil
}

// Router builds the gin engine with CORS and all routes
func (h *Handler) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	r.Use(corsMiddleware(h.config.CORSAllowedOrigins))

	SetupRoutes(r, h.sessionUsecase, h.sessionHandler, h.inboxHandler, h.preferencesHandler, h.settingsHandler, h.config.AdminIdentities)
	return r
}

func (h *Handler) Start(addr string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if h.config.SessionSweepPeriod > 0 {
		go sessionUsecase.RunSweeper(ctx, h.sessionUsecase, h.config.SessionSweepPeriod)
	}

	h.logger.WithField("addr", addr).Info("server starting")
	return h.Router().Run(addr)
}
