package documents

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"werkly-backend/internal/companies"
	"werkly-backend/internal/queue"
	"werkly-backend/internal/shared/server/middleware"
	"werkly-backend/internal/shared/server/respond"
	"werkly-backend/internal/shared/telemetry"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc       *Service
	Companies companies.Repo
	Queue     queue.Client
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, companiesRepo companies.Repo, q queue.Client) *Handler {
	return &Handler{Svc: svc, Companies: companiesRepo, Queue: q}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.DELETE("/documents/:id", h.remove)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	companyID, ok := h.resolveCompany(c, userID)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), userID, companyID, fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload document", nil)
		}
		return
	}
	c.Set("documentId", doc.ID)

	// Best-effort enqueue so a worker picks the document up; callers can
	// still trigger processing synchronously via the process endpoint.
	if h.Queue != nil {
		msg := queue.Message{
			DocumentID: doc.ID,
			RequestID:  middleware.RequestIDFromContext(c),
			EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
			Version:    1,
		}
		if err := h.Queue.Send(c.Request.Context(), msg); err != nil {
			telemetry.Error("documents.enqueue_failed", map[string]any{
				"document_id": doc.ID,
				"error":       err.Error(),
			})
		}
	}

	respond.JSON(c, http.StatusCreated, toResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	companyID, ok := h.resolveCompany(c, userID)
	if !ok {
		return
	}

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	docs, err := h.Svc.List(c.Request.Context(), companyID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	resp := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toResponse(doc))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	companyID, ok := h.resolveCompany(c, userID)
	if !ok {
		return
	}

	doc, err := h.Svc.Get(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(doc))
}

func (h *Handler) remove(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	companyID, ok := h.resolveCompany(c, userID)
	if !ok {
		return
	}

	if err := h.Svc.Delete(c.Request.Context(), companyID, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete document", nil)
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

func toResponse(doc Document) gin.H {
	resp := gin.H{
		"documentId": doc.ID,
		"filename":   doc.Filename,
		"fileType":   doc.FileType,
		"fileSize":   doc.FileSize,
		"status":     doc.Status,
		"createdAt":  doc.CreatedAt,
	}
	if doc.ErrorMessage != "" {
		resp["errorMessage"] = doc.ErrorMessage
	}
	return resp
}
