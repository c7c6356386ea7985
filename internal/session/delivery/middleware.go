package delivery

import (
	"net/http"
	"strings"

	"email-insight-backend/internal/session/domain"
	"email-insight-backend/internal/session/usecase"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

func SessionMiddleware(sessionUsecase usecase.SessionUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		sess, err := sessionUsecase.Validate(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			c.Abort()
			return
		}

		SetSession(c, sess)
		c.Next()
	}
}

// RequireIdentity only lets through sessions whose mailbox identity is listed.
// An empty list rejects everyone.
func RequireIdentity(identities []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(identities))
	for _, identity := range identities {
		allowed[strings.ToLower(strings.TrimSpace(identity))] = true
	}
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if sess == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session required"})
			c.Abort()
			return
		}
		if !allowed[strings.ToLower(sess.Identity)] {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SetSession attaches sess to the request context
func SetSession(c *gin.Context, sess *domain.Session) {
	c.Set(sessionKey, sess)
}

// CurrentSession returns the session set by SessionMiddleware, or nil
func CurrentSession(c *gin.Context) *domain.Session {
	value, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := value.(*domain.Session)
	return sess
}
