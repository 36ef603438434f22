package chat

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"werkly-backend/internal/companies"
	"werkly-backend/internal/retrieval"
	"werkly-backend/internal/shared/server/middleware"
	"werkly-backend/internal/shared/server/respond"
	"werkly-backend/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the chat service.
type Handler struct {
	Svc       *Service
	Companies companies.Repo
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, companiesRepo companies.Repo) *Handler {
	return &Handler{Svc: svc, Companies: companiesRepo}
}

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.stream)
	rg.POST("/chat/search", h.search)
	rg.GET("/conversations", h.listConversations)
	rg.GET("/conversations/:id/messages", h.listMessages)
	rg.DELETE("/conversations/:id", h.deleteConversation)
}

type chatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversationId"`
}

func (h *Handler) stream(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	companyID, ok := h.resolveCompany(c, userID)
	if !ok {
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "message is required", nil)
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conv, err := h.Svc.StartConversation(c.Request.Context(), companyID, userID, req.Message)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				respond.Error(c, http.StatusBadRequest, "validation_error", "message is required", nil)
			} else {
				respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start conversation", nil)
			}
			return
		}
		conversationID = conv.ID
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("X-Conversation-Id", conversationID)
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	flusher, _ := c.Writer.(http.Flusher)

	_, err := h.Svc.Stream(c.Request.Context(), StreamRequest{
		CompanyID:      companyID,
		UserID:         userID,
		ConversationID: conversationID,
		Query:          req.Message,
	}, func(token string) error {
		if _, err := c.Writer.WriteString(token); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		// Headers are already on the wire; log and end the stream.
		telemetry.Error("chat.stream_failed", map[string]any{
			"conversation_id": conversationID,
			"error":           err.Error(),
		})
		if errors.Is(err, ErrNotFound) && c.Writer.Size() <= 0 {
			c.Status(http.StatusNotFound)
		}
	}
}

func (h *Handler) search(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	companyID, ok := h.resolveCompany(c, userID)
	if !ok {
		return
	}

	var req struct {
		Query string `json:"query" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "query is required", nil)
		return
	}

	res, err := h.Svc.Search(c.Request.Context(), companyID, req.Query)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "query is required", nil)
		} else {
			respond.Error(c, http.StatusBadGateway, "retrieval_failed", "failed to search documents", nil)
		}
		return
	}

	sources := res.Sources
	if sources == nil {
		sources = []retrieval.Source{}
	}
	respond.JSON(c, http.StatusOK, gin.H{"sources": sources})
}

func (h *Handler) listConversations(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	companyID, ok := h.resolveCompany(c, userID)
	if !ok {
		return
	}

	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	convs, err := h.Svc.Conversations(c.Request.Context(), companyID, userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list conversations", nil)
		return
	}

	resp := make([]gin.H, 0, len(convs))
	for _, conv := range convs {
		resp = append(resp, gin.H{
			"conversationId": conv.ID,
			"title":          conv.Title,
			"createdAt":      conv.CreatedAt,
			"updatedAt":      conv.UpdatedAt,
		})
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) listMessages(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	companyID, ok := h.resolveCompany(c, userID)
	if !ok {
		return
	}

	msgs, err := h.Svc.Messages(c.Request.Context(), companyID, c.Param("id"), queryInt(c, "limit", 100))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "conversation not found", nil)
		} else {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list messages", nil)
		}
		return
	}

	resp := make([]gin.H, 0, len(msgs))
	for _, msg := range msgs {
		resp = append(resp, gin.H{
			"messageId": msg.ID,
			"role":      msg.Role,
			"content":   msg.Content,
			"createdAt": msg.CreatedAt,
		})
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) deleteConversation(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	companyID, ok := h.resolveCompany(c, userID)
	if !ok {
		return
	}

	if err := h.Svc.DeleteConversation(c.Request.Context(), companyID, c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "conversation not found", nil)
		} else {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete conversation", nil)
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) resolveCompany(c *gin.Context, userID string) (string, bool) {
	companyID, err := h.Companies.CompanyIDForUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, companies.ErrNoCompany) {
			respond.Error(c, http.StatusBadRequest, "no_company", "user not associated with a company", nil)
		} else {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to resolve company", nil)
		}
		return "", false
	}
	return companyID, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if v := c.Query(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}
