package account

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autofill-backend/internal/shared/server/middleware"
	"autofill-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.DELETE("/account/learned-data", h.purgeLearnedData)
}

// purgeLearnedData drops everything learned about the caller. Works for guest
// identities too; a guest's learned data is still theirs to delete.
func (h *Handler) purgeLearnedData(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	result, err := h.Svc.PurgeLearnedData(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to purge learned data", nil)
		return
	}
	respond.OK(c, gin.H{"deleted": result})
}
