package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	inboxdomain "email-insight-backend/internal/inbox/domain"
	inboxusecase "email-insight-backend/internal/inbox/usecase"
	"email-insight-backend/internal/preferences/repository"
	"email-insight-backend/internal/preferences/usecase"
	sessiondomain "email-insight-backend/internal/session/domain"
	"email-insight-backend/pkg/ai"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type singlePageSource struct {
	listErr error
}

func (s *singlePageSource) ListUnread(ctx context.Context, pageToken string, max int) (*inboxdomain.MessagePage, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return &inboxdomain.MessagePage{IDs: []string{"A"}}, nil
}

func (s *singlePageSource) FetchFull(ctx context.Context, id string) (*inboxdomain.RawMessage, error) {
	h := make(textproto.MIMEHeader)
	h.Set(inboxdomain.HeaderFrom, "Alice <alice@example.com>")
	h.Set(inboxdomain.HeaderSubject, "Hello")
	return &inboxdomain.RawMessage{ID: id, Headers: h, Snippet: "hello there"}, nil
}

func (s *singlePageSource) RemoveUnreadLabel(ctx context.Context, id string) error { return nil }

func (s *singlePageSource) Send(ctx context.Context, raw, authToken string) error { return nil }

type guidanceEcho struct{}

// Classify puts the guidance into the summary so tests can see which preferences were used.
func (guidanceEcho) Classify(ctx context.Context, snippet, guidance string) (*ai.Classification, error) {
	return &ai.Classification{Summary: guidance, Category: "Important"}, nil
}

func (guidanceEcho) ComposeReply(ctx context.Context, summary, style, instruction string) (string, error) {
	return "", nil
}

type sessionList []*sessiondomain.Session

func (l sessionList) SessionsFor(identity string) []*sessiondomain.Session {
	var out []*sessiondomain.Session
	for _, sess := range l {
		if sess.Identity == identity {
			out = append(out, sess)
		}
	}
	return out
}

func newSession(id, identity string, source *singlePageSource) *sessiondomain.Session {
	logger, _ := test.NewNullLogger()
	return &sessiondomain.Session{
		ID:       id,
		Identity: identity,
		Source:   source,
		Pipeline: inboxusecase.NewPipeline(source, guidanceEcho{}, inboxusecase.PipelineConfig{}, logger),
		Replies:  inboxusecase.NewReplyPipeline(source, guidanceEcho{}, inboxusecase.ReplyConfig{}, logger),
	}
}

func newRouter(t *testing.T, source *singlePageSource) (*gin.Engine, *sessiondomain.Session) {
	t.Helper()
	sess := newSession("s1", "user@example.com", source)
	return newRouterFor(t, sess, sessionList{sess}), sess
}

// newRouterFor serves requests as caller, with sessions as the live session table.
func newRouterFor(t *testing.T, caller *sessiondomain.Session, sessions sessionList) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()

	prefs := usecase.NewPreferencesUsecase(repository.NewMemoryKnowledgeBaseRepository(), logger)
	handler := NewPreferencesHandler(prefs, sessions, logger)

	r := gin.New()
	api := r.Group("/api/preferences")
	api.Use(func(c *gin.Context) {
		c.Set("session", caller)
		c.Next()
	})
	api.GET("", handler.GetPreferences)
	api.PUT("/classification", handler.UpdateClassification)
	api.PUT("/reply", handler.UpdateReply)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type classificationBody struct {
	Classification string `json:"classification"`
	Refreshed      bool   `json:"refreshed"`
	Inbox          *struct {
		Items []struct {
			ID      string `json:"id"`
			Summary string `json:"summary"`
		} `json:"items"`
	} `json:"inbox"`
}

func TestGetPreferences_EmptyByDefault(t *testing.T) {
	r, _ := newRouter(t, &singlePageSource{})

	w := do(r, http.MethodGet, "/api/preferences", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "", body["classification"])
	assert.Equal(t, "", body["reply"])
}

func TestUpdateClassification_RefreshesOnChange(t *testing.T) {
	r, sess := newRouter(t, &singlePageSource{})

	w := do(r, http.MethodPut, "/api/preferences/classification", `{"guidance":"newsletters are spam"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body classificationBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Refreshed)
	require.NotNil(t, body.Inbox)
	require.Len(t, body.Inbox.Items, 1)
	assert.Equal(t, "newsletters are spam", body.Inbox.Items[0].Summary)
	assert.Len(t, sess.Pipeline.Items(), 1)

	w = do(r, http.MethodPut, "/api/preferences/classification", `{"guidance":"  newsletters are spam "}`)
	require.Equal(t, http.StatusOK, w.Code)
	body = classificationBody{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Refreshed)
	assert.Nil(t, body.Inbox)
}

func TestUpdateClassification_FailedRefreshDiscardsSet(t *testing.T) {
	source := &singlePageSource{}
	r, sess := newRouter(t, source)

	_, err := sess.Pipeline.Refresh(context.Background(), inboxdomain.PreferenceSet{})
	require.NoError(t, err)
	require.Len(t, sess.Pipeline.Items(), 1)

	source.listErr = errors.New("503")
	w := do(r, http.MethodPut, "/api/preferences/classification", `{"guidance":"work first"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Empty(t, sess.Pipeline.Items())
	assert.True(t, sess.Pipeline.Cursor().IsInitial())
}

func TestUpdateReply_StoresOnly(t *testing.T) {
	source := &singlePageSource{}
	r, sess := newRouter(t, source)

	w := do(r, http.MethodPut, "/api/preferences/reply", `{"guidance":"formal, sign as Sam"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sess.Pipeline.Items())

	w = do(r, http.MethodGet, "/api/preferences", "")
	assert.Contains(t, w.Body.String(), "formal, sign as Sam")

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/api/preferences/reply", `not json`).Code)
}

func TestUpdateClassification_DiscardsOtherSessionsOfIdentity(t *testing.T) {
	first := newSession("s1", "user@example.com", &singlePageSource{})
	second := newSession("s2", "user@example.com", &singlePageSource{})
	stranger := newSession("s3", "other@example.com", &singlePageSource{})

	for _, sess := range []*sessiondomain.Session{second, stranger} {
		_, err := sess.Pipeline.Refresh(context.Background(), inboxdomain.PreferenceSet{ClassificationGuidance: "old"})
		require.NoError(t, err)
		require.Len(t, sess.Pipeline.Items(), 1)
		assert.Equal(t, "old", sess.Pipeline.Items()[0].Summary)
	}

	r := newRouterFor(t, first, sessionList{first, second, stranger})
	w := do(r, http.MethodPut, "/api/preferences/classification", `{"guidance":"new"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Len(t, first.Pipeline.Items(), 1)
	assert.Equal(t, "new", first.Pipeline.Items()[0].Summary)

	assert.Empty(t, second.Pipeline.Items())
	assert.True(t, second.Pipeline.Cursor().IsInitial())

	require.Len(t, stranger.Pipeline.Items(), 1)
	assert.Equal(t, "old", stranger.Pipeline.Items()[0].Summary)
}
