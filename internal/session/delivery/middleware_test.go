package delivery

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"email-insight-backend/internal/session/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func adminRouter(sess *domain.Session, admins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", func(c *gin.Context) {
		if sess != nil {
			SetSession(c, sess)
		}
		c.Next()
	}, RequireIdentity(admins), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"identity": CurrentSession(c).Identity})
	})
	return r
}

func TestRequireIdentity(t *testing.T) {
	tests := []struct {
		name     string
		sess     *domain.Session
		admins   []string
		wantCode int
	}{
		{"no session", nil, []string{"ops@example.com"}, http.StatusUnauthorized},
		{"not listed", &domain.Session{Identity: "user@example.com"}, []string{"ops@example.com"}, http.StatusForbidden},
		{"empty list", &domain.Session{Identity: "ops@example.com"}, nil, http.StatusForbidden},
		{"listed", &domain.Session{Identity: "ops@example.com"}, []string{"ops@example.com"}, http.StatusOK},
		{"case insensitive", &domain.Session{Identity: "Ops@Example.com"}, []string{" ops@example.com"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			adminRouter(tt.sess, tt.admins).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestCurrentSession_Unset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, CurrentSession(c))

	sess := &domain.Session{ID: "s1"}
	SetSession(c, sess)
	assert.Same(t, sess, CurrentSession(c))
}
