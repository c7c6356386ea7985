package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"email-insight-backend/internal/inbox/domain"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type fakeGmail struct {
	t         *testing.T
	modified  []string
	sentRaw   string
	sentAuth  string
	listQuery map[string]string
}

func (f *fakeGmail) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("/gmail/v1/users/me/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			http.Error(w, `{"error":{"code":401,"message":"Invalid Credentials"}}`, http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]interface{}{"emailAddress": "user@example.com"})
	})

	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f.listQuery = map[string]string{
			"q":          q.Get("q"),
			"maxResults": q.Get("maxResults"),
			"pageToken":  q.Get("pageToken"),
		}
		if q.Get("pageToken") == "tok1" {
			writeJSON(w, map[string]interface{}{
				"messages": []map[string]string{{"id": "C", "threadId": "t3"}},
			})
			return
		}
		writeJSON(w, map[string]interface{}{
			"messages":      []map[string]string{{"id": "A", "threadId": "t1"}, {"id": "B", "threadId": "t2"}},
			"nextPageToken": "tok1",
		})
	})

	mux.HandleFunc("/gmail/v1/users/me/messages/A", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "full", r.URL.Query().Get("format"))
		writeJSON(w, map[string]interface{}{
			"id":           "A",
			"snippet":      "Can we meet at 3pm? It&#39;s about the launch",
			"internalDate": "1709285400000",
			"payload": map[string]interface{}{
				"mimeType": "text/plain",
				"headers": []map[string]string{
					{"name": "From", "value": "Alice <alice@example.com>"},
					{"name": "Subject", "value": "Launch"},
					{"name": "Date", "value": "Fri, 01 Mar 2024 09:30:00 +0000"},
					{"name": "Message-ID", "value": "<CAF1@mail.example.com>"},
				},
			},
		})
	})

	mux.HandleFunc("/gmail/v1/users/me/messages/B", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"id":           "B",
			"internalDate": "1709285400000",
			"payload": map[string]interface{}{
				"mimeType": "multipart/alternative",
				"parts": []map[string]interface{}{
					{
						"mimeType": "text/html",
						"body":     map[string]string{"data": base64.URLEncoding.EncodeToString([]byte("<p>Hello&nbsp;<b>there</b></p>"))},
					},
				},
			},
		})
	})

	mux.HandleFunc("/gmail/v1/users/me/messages/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":404,"message":"Not Found"}}`, http.StatusNotFound)
	})

	mux.HandleFunc("/gmail/v1/users/me/messages/A/modify", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RemoveLabelIds []string `json:"removeLabelIds"`
		}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		f.modified = append(f.modified, req.RemoveLabelIds...)
		writeJSON(w, map[string]interface{}{"id": "A"})
	})

	mux.HandleFunc("/gmail/v1/users/me/messages/send", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Raw string `json:"raw"`
		}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		f.sentRaw = req.Raw
		f.sentAuth = r.Header.Get("Authorization")
		writeJSON(w, map[string]interface{}{"id": "sent-1"})
	})
	return mux
}

func newTestService(t *testing.T) (*Service, *fakeGmail) {
	t.Helper()
	fake := &fakeGmail{t: t}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	logger, _ := test.NewNullLogger()
	return NewService("client-id", "client-secret", logger, option.WithEndpoint(srv.URL+"/")), fake
}

func TestConnect(t *testing.T) {
	svc, _ := newTestService(t)

	mailbox, address, err := svc.Connect(context.Background(), "good-token", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", address)
	assert.Equal(t, "user@example.com", mailbox.Address())

	_, _, err = svc.Connect(context.Background(), "bad-token", "", nil)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMailbox_ListUnread(t *testing.T) {
	svc, fake := newTestService(t)
	mailbox, _, err := svc.Connect(context.Background(), "good-token", "", nil)
	require.NoError(t, err)

	page, err := mailbox.ListUnread(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, page.IDs)
	assert.Equal(t, "tok1", page.NextPageToken)
	assert.Equal(t, "is:unread", fake.listQuery["q"])
	assert.Equal(t, "2", fake.listQuery["maxResults"])
	assert.Empty(t, fake.listQuery["pageToken"])

	page, err = mailbox.ListUnread(context.Background(), "tok1", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, page.IDs)
	assert.Empty(t, page.NextPageToken)
	assert.Equal(t, "tok1", fake.listQuery["pageToken"])
}

func TestMailbox_FetchFull(t *testing.T) {
	svc, _ := newTestService(t)
	mailbox, _, err := svc.Connect(context.Background(), "good-token", "", nil)
	require.NoError(t, err)

	msg, err := mailbox.FetchFull(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "A", msg.ID)
	assert.Equal(t, "Alice <alice@example.com>", msg.Headers.Get(domain.HeaderFrom))
	assert.Equal(t, "Launch", msg.Headers.Get(domain.HeaderSubject))
	assert.Equal(t, "<CAF1@mail.example.com>", msg.Headers.Get(domain.HeaderMessageID))
	assert.Equal(t, "Can we meet at 3pm? It's about the launch", msg.Snippet)
	assert.True(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC).Equal(msg.InternalDate))

	msg, err = mailbox.FetchFull(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, "Hello there", msg.Snippet)
	assert.Empty(t, msg.Headers.Get(domain.HeaderSubject))

	_, err = mailbox.FetchFull(context.Background(), "missing")
	assert.Error(t, err)
}

func TestMailbox_RemoveUnreadLabel(t *testing.T) {
	svc, fake := newTestService(t)
	mailbox, _, err := svc.Connect(context.Background(), "good-token", "", nil)
	require.NoError(t, err)

	require.NoError(t, mailbox.RemoveUnreadLabel(context.Background(), "A"))
	assert.Equal(t, []string{"UNREAD"}, fake.modified)
}

func TestMailbox_SendUsesGivenToken(t *testing.T) {
	svc, fake := newTestService(t)
	mailbox, _, err := svc.Connect(context.Background(), "good-token", "", nil)
	require.NoError(t, err)

	raw := base64.URLEncoding.EncodeToString([]byte("To: a@example.com\r\nSubject: Re: hi\r\n\r\nok"))
	require.NoError(t, mailbox.Send(context.Background(), raw, "send-token"))
	assert.Equal(t, raw, fake.sentRaw)
	assert.Equal(t, "Bearer send-token", fake.sentAuth)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b", preview("  a \n\t b ", false))
	assert.Equal(t, "Hi & bye", preview("<div>Hi &amp; <i>bye</i></div>", true))

	long := make([]byte, maxSnippetLength+20)
	for i := range long {
		long[i] = 'x'
	}
	got := preview(string(long), false)
	assert.Len(t, got, maxSnippetLength+3)
}
