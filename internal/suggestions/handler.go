package suggestions

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"werkly-backend/internal/companies"
	"werkly-backend/internal/shared/server/middleware"
	"werkly-backend/internal/shared/server/respond"
)

// Handler wires the suggestions endpoint.
type Handler struct {
	Svc       *Service
	Companies companies.Repo
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, companiesRepo companies.Repo) *Handler {
	return &Handler{Svc: svc, Companies: companiesRepo}
}

// RegisterRoutes attaches suggestion routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/suggestions", h.list)
}

func (h *Handler) list(c *gin.Context) {
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

	res, err := h.Svc.ForUser(c.Request.Context(), companyID, userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to build suggestions", nil)
		return
	}
	respond.JSON(c, http.StatusOK, res)
}
