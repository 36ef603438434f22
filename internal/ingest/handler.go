package ingest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"werkly-backend/internal/companies"
	"werkly-backend/internal/documents"
	"werkly-backend/internal/shared/server/middleware"
	"werkly-backend/internal/shared/server/respond"
)

// Handler exposes synchronous document processing.
type Handler struct {
	Svc       *Service
	Companies companies.Repo
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, companiesRepo companies.Repo) *Handler {
	return &Handler{Svc: svc, Companies: companiesRepo}
}

// RegisterRoutes attaches processing routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/process", h.process)
}

func (h *Handler) process(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	companyID, err := h.Companies.CompanyIDForUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, companies.ErrNoCompany) {
			respond.Error(c, http.StatusBadRequest, "no_company", "user not associated with a company", nil)
		} else {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to resolve company", nil)
		}
		return
	}

	documentID := c.Param("id")

	// Ownership check before processing; Ingest itself loads by ID only.
	if _, err := h.Svc.Docs.GetForCompany(c.Request.Context(), companyID, documentID); err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		} else {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		}
		return
	}

	res, err := h.Svc.Ingest(c.Request.Context(), documentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyDocument), errors.Is(err, ErrExtraction):
			respond.Error(c, http.StatusUnprocessableEntity, "unprocessable_document", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process document", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"documentId":      documentID,
		"status":          documents.StatusCompleted,
		"chunksProcessed": res.ChunksProcessed,
		"chunksFailed":    res.ChunksFailed,
	})
}
