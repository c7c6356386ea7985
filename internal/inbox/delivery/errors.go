package delivery

import (
	"context"
	"errors"
	"net/http"

	"email-insight-backend/internal/inbox/domain"

	"github.com/gin-gonic/gin"
)

// RespondError writes the HTTP status that matches a pipeline error
func RespondError(c *gin.Context, err error) {
	var (
		listErr  *domain.ListError
		readErr  *domain.ReadStateUpdateError
		draftErr *domain.DraftGenerationError
		sendErr  *domain.SendError
	)

	switch {
	case errors.Is(err, domain.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCursor):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &sendErr):
		if sendErr.Precondition {
			c.JSON(http.StatusBadRequest, gin.H{"error": sendErr.Reason})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.As(err, &draftErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": draftErr.Message})
	case errors.As(err, &listErr), errors.As(err, &readErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
