package delivery

import (
	"net/http"

	"email-insight-backend/internal/inbox/domain"
	inboxdto "email-insight-backend/internal/inbox/dto"
	prefusecase "email-insight-backend/internal/preferences/usecase"
	sessiondelivery "email-insight-backend/internal/session/delivery"
	sessiondomain "email-insight-backend/internal/session/domain"

	"github.com/gin-gonic/gin"
)

type InboxHandler struct {
	preferencesUsecase prefusecase.PreferencesUsecase
}

func NewInboxHandler(preferencesUsecase prefusecase.PreferencesUsecase) *InboxHandler {
	return &InboxHandler{
		preferencesUsecase: preferencesUsecase,
	}
}

func session(c *gin.Context) *sessiondomain.Session {
	sess := sessiondelivery.CurrentSession(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session required"})
	}
	return sess
}

// Refresh discards the accumulated set and loads the first page
// POST /api/inbox/refresh
func (h *InboxHandler) Refresh(c *gin.Context) {
	sess := session(c)
	if sess == nil {
		return
	}

	kb, err := h.preferencesUsecase.Get(c.Request.Context(), sess.Identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	snapshot, err := sess.Pipeline.Refresh(c.Request.Context(), kb.PreferenceSet())
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, inboxdto.NewItemsResponse(snapshot, domain.CategoryAll, sess.Replies.Sent))
}

// LoadMore appends the next page
// POST /api/inbox/load-more
func (h *InboxHandler) LoadMore(c *gin.Context) {
	sess := session(c)
	if sess == nil {
		return
	}

	result, err := sess.Pipeline.LoadMore(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, inboxdto.LoadMoreResponse{
		Appended:      inboxdto.NewItemResponses(result.Appended, sess.Replies.Sent),
		ItemsResponse: inboxdto.NewItemsResponse(&result.Snapshot, domain.CategoryAll, sess.Replies.Sent),
	})
}

// GetItems returns the accumulated set, optionally filtered by category
// GET /api/inbox/items?category=Important
func (h *InboxHandler) GetItems(c *gin.Context) {
	sess := session(c)
	if sess == nil {
		return
	}

	category := domain.ParseCategory(c.DefaultQuery("category", string(domain.CategoryAll)))
	c.JSON(http.StatusOK, inboxdto.NewItemsResponse(sess.Pipeline.Snapshot(), category, sess.Replies.Sent))
}

// GetItem returns one accumulated item
// GET /api/inbox/items/:id
func (h *InboxHandler) GetItem(c *gin.Context) {
	sess := session(c)
	if sess == nil {
		return
	}

	id := c.Param("id")
	item, ok := sess.Pipeline.Item(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	c.JSON(http.StatusOK, inboxdto.NewItemResponse(item, sess.Replies.Sent(id)))
}

// MarkAsRead marks a message read and drops it from the set
// POST /api/inbox/items/:id/read
func (h *InboxHandler) MarkAsRead(c *gin.Context) {
	sess := session(c)
	if sess == nil {
		return
	}

	if err := sess.Pipeline.MarkAsRead(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, inboxdto.NewItemsResponse(sess.Pipeline.Snapshot(), domain.CategoryAll, sess.Replies.Sent))
}

// DraftReply generates a reply draft in the user's style
// POST /api/inbox/items/:id/reply/draft
func (h *InboxHandler) DraftReply(c *gin.Context) {
	sess := session(c)
	if sess == nil {
		return
	}

	var req inboxdto.DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, ok := sess.Pipeline.Item(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	kb, err := h.preferencesUsecase.Get(c.Request.Context(), sess.Identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	draft, err := sess.Replies.DraftReply(c.Request.Context(), &item, kb.PreferenceSet().ReplyStyleGuidance, req.Instruction)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, inboxdto.DraftResponse{Draft: draft})
}

// SendReply sends an edited draft as a reply to the item
// POST /api/inbox/items/:id/reply/send
func (h *InboxHandler) SendReply(c *gin.Context) {
	sess := session(c)
	if sess == nil {
		return
	}

	var req inboxdto.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, ok := sess.Pipeline.Item(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	result, err := sess.Replies.SendReply(c.Request.Context(), &item, req.Draft, sess.AuthToken())
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, inboxdto.SendResponse{Result: string(result)})
}
