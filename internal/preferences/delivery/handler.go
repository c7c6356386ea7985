package delivery

import (
	"net/http"

	inboxdelivery "email-insight-backend/internal/inbox/delivery"
	inboxdomain "email-insight-backend/internal/inbox/domain"
	inboxdto "email-insight-backend/internal/inbox/dto"
	"email-insight-backend/internal/preferences/domain"
	prefdto "email-insight-backend/internal/preferences/dto"
	"email-insight-backend/internal/preferences/usecase"
	sessiondelivery "email-insight-backend/internal/session/delivery"
	sessiondomain "email-insight-backend/internal/session/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SessionLister finds the other live sessions sharing a mailbox identity
type SessionLister interface {
	SessionsFor(identity string) []*sessiondomain.Session
}

type PreferencesHandler struct {
	preferencesUsecase usecase.PreferencesUsecase
	sessions           SessionLister
	logger             logrus.FieldLogger
}

func NewPreferencesHandler(preferencesUsecase usecase.PreferencesUsecase, sessions SessionLister, logger logrus.FieldLogger) *PreferencesHandler {
	return &PreferencesHandler{
		preferencesUsecase: preferencesUsecase,
		sessions:           sessions,
		logger:             logger.WithField("component", "preferences"),
	}
}

func toResponse(kb *domain.KnowledgeBase) prefdto.PreferencesResponse {
	return prefdto.PreferencesResponse{
		Classification: kb.Classification,
		Reply:          kb.Reply,
		UpdatedAt:      kb.UpdatedAt,
	}
}

// GetPreferences returns both guidance texts
// GET /api/preferences
func (h *PreferencesHandler) GetPreferences(c *gin.Context) {
	sess := sessiondelivery.CurrentSession(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session required"})
		return
	}

	kb, err := h.preferencesUsecase.Get(c.Request.Context(), sess.Identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toResponse(kb))
}

// UpdateClassification stores the classification guidance. A changed guidance
// refreshes the caller's inbox and discards the sets of every other session of
// the same identity, since they were classified under the old guidance. If the
// caller's refresh fails its set is discarded too.
// PUT /api/preferences/classification
func (h *PreferencesHandler) UpdateClassification(c *gin.Context) {
	sess := sessiondelivery.CurrentSession(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session required"})
		return
	}

	var req prefdto.UpdateGuidanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kb, changed, err := h.preferencesUsecase.UpdateClassification(c.Request.Context(), sess.Identity, req.Guidance)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := prefdto.ClassificationUpdateResponse{PreferencesResponse: toResponse(kb)}
	if !changed {
		c.JSON(http.StatusOK, resp)
		return
	}

	h.invalidateOthers(sess)

	snapshot, err := sess.Pipeline.Refresh(c.Request.Context(), kb.PreferenceSet())
	if err != nil {
		h.logger.WithError(err).WithField("session_id", sess.ID).Error("refresh after preference change failed")
		sess.Pipeline.Invalidate()
		inboxdelivery.RespondError(c, err)
		return
	}

	inbox := inboxdto.NewItemsResponse(snapshot, inboxdomain.CategoryAll, sess.Replies.Sent)
	resp.Refreshed = true
	resp.Inbox = &inbox
	c.JSON(http.StatusOK, resp)
}

func (h *PreferencesHandler) invalidateOthers(sess *sessiondomain.Session) {
	if h.sessions == nil {
		return
	}
	for _, other := range h.sessions.SessionsFor(sess.Identity) {
		if other.ID == sess.ID || other.Pipeline == nil {
			continue
		}
		other.Pipeline.Invalidate()
		h.logger.WithField("session_id", other.ID).Debug("set discarded after classification change")
	}
}

// UpdateReply stores the reply style guidance
// PUT /api/preferences/reply
func (h *PreferencesHandler) UpdateReply(c *gin.Context) {
	sess := sessiondelivery.CurrentSession(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session required"})
		return
	}

	var req prefdto.UpdateGuidanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kb, err := h.preferencesUsecase.UpdateReply(c.Request.Context(), sess.Identity, req.Guidance)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toResponse(kb))
}
