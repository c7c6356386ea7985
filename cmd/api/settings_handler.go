package api

import (
	"context"
	"net/http"
	"time"

	sessionDelivery "email-insight-backend/internal/session/delivery"
	"email-insight-backend/pkg/ai"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const ollamaPingTimeout = 5 * time.Second

// SettingsHandler exposes the runtime Ollama endpoint to admin sessions
type SettingsHandler struct {
	ollama *ai.OllamaSettings
	logger logrus.FieldLogger
}

func NewSettingsHandler(ollama *ai.OllamaSettings, logger logrus.FieldLogger) *SettingsHandler {
	return &SettingsHandler{
		ollama: ollama,
		logger: logger.WithField("component", "settings"),
	}
}

type ollamaSettingsResponse struct {
	OllamaBaseURL string `json:"ollama_base_url"`
	OllamaModel   string `json:"ollama_model"`
}

type updateOllamaSettingsRequest struct {
	OllamaBaseURL string `json:"ollama_base_url" binding:"required"`
	OllamaModel   string `json:"ollama_model,omitempty"`
}

func (h *SettingsHandler) current() ollamaSettingsResponse {
	return ollamaSettingsResponse{
		OllamaBaseURL: h.ollama.BaseURL(),
		OllamaModel:   h.ollama.Model(),
	}
}

// GetOllama returns the current Ollama endpoint
// GET /api/settings/ollama
func (h *SettingsHandler) GetOllama(c *gin.Context) {
	c.JSON(http.StatusOK, h.current())
}

// UpdateOllama points the enrichment service at another Ollama server
// PUT /api/settings/ollama
func (h *SettingsHandler) UpdateOllama(c *gin.Context) {
	var req updateOllamaSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ollama.Update(req.OllamaBaseURL, req.OllamaModel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry := h.logger.WithFields(logrus.Fields{
		"ollama_base_url": req.OllamaBaseURL,
		"ollama_model":    h.ollama.Model(),
	})
	if sess := sessionDelivery.CurrentSession(c); sess != nil {
		entry = entry.WithField("identity", sess.Identity)
	}
	entry.Info("ollama settings updated")

	c.JSON(http.StatusOK, h.current())
}

// TestOllama checks that the configured Ollama server, or the one in the body, answers
// POST /api/settings/ollama/test
func (h *SettingsHandler) TestOllama(c *gin.Context) {
	var req struct {
		OllamaBaseURL string `json:"ollama_base_url"`
	}
	// An empty body tests the current endpoint
	_ = c.ShouldBindJSON(&req)
	if req.OllamaBaseURL == "" {
		req.OllamaBaseURL = h.ollama.BaseURL()
	}
	if err := ai.ValidateBaseURL(req.OllamaBaseURL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ollamaPingTimeout)
	defer cancel()

	statusCode, err := ai.Ping(ctx, req.OllamaBaseURL)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}

	if statusCode != http.StatusOK {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected":   false,
			"status_code": statusCode,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":       true,
		"ollama_base_url": req.OllamaBaseURL,
	})
}
