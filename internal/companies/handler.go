package companies

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"werkly-backend/internal/shared/server/middleware"
	"werkly-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches company routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/companies", h.create)
	rg.GET("/companies/me", h.me)
	rg.PATCH("/companies/me", h.rename)
}

type createCompanyRequest struct {
	Name string `json:"name"`
}

func (h *Handler) create(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	company, err := h.Svc.CreateForUser(c.Request.Context(), userID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "name is required", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create company", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(company))
}

func (h *Handler) me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	company, err := h.Svc.ForUser(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoCompany), errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "company not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch company", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(company))
}

type renameCompanyRequest struct {
	Name string `json:"name"`
}

func (h *Handler) rename(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req renameCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	if err := h.Svc.Rename(c.Request.Context(), userID, req.Name); err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "name is required", nil)
		case errors.Is(err, ErrNoCompany), errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "company not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update company", nil)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func toResponse(company Company) gin.H {
	return gin.H{
		"companyId": company.ID,
		"name":      company.Name,
		"createdAt": company.CreatedAt,
	}
}
