package delivery

import (
	"errors"
	"net/http"

	"email-insight-backend/internal/session/dto"
	"email-insight-backend/internal/session/usecase"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessionUsecase usecase.SessionUsecase
}

func NewSessionHandler(sessionUsecase usecase.SessionUsecase) *SessionHandler {
	return &SessionHandler{
		sessionUsecase: sessionUsecase,
	}
}

// Connect opens a mailbox session
// POST /api/session
func (h *SessionHandler) Connect(c *gin.Context) {
	var req dto.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.sessionUsecase.Connect(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUnsupportedProvider):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, usecase.ErrMailboxRejected):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the current session
// GET /api/session/me
func (h *SessionHandler) Me(c *gin.Context) {
	sess := CurrentSession(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session required"})
		return
	}

	c.JSON(http.StatusOK, dto.SessionResponse{
		SessionID: sess.ID,
		Provider:  string(sess.Provider),
		Identity:  sess.Identity,
		ExpiresAt: sess.ExpiresAt,
	})
}

// Disconnect closes the current session and discards its items
// DELETE /api/session
func (h *SessionHandler) Disconnect(c *gin.Context) {
	sess := CurrentSession(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session required"})
		return
	}

	if err := h.sessionUsecase.Disconnect(sess.ID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "disconnected"})
}
