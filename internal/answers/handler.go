package answers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"autofill-backend/internal/shared/server/middleware"
	"autofill-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches custom-answer routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/custom-answers", h.list)
	rg.POST("/custom-answers", h.save)
	rg.DELETE("/custom-answers/:id", h.delete)
}

type answerResponse struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toResponse(a CustomAnswer) answerResponse {
	return answerResponse{ID: a.ID, Question: a.Question, Answer: a.Answer, UpdatedAt: a.UpdatedAt}
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	list, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list custom answers", nil)
		return
	}
	out := make([]answerResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toResponse(a))
	}
	respond.OK(c, gin.H{"answers": out})
}

type saveAnswerRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (h *Handler) save(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req saveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	saved, err := h.Svc.Save(c.Request.Context(), userID, req.Question, req.Answer)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save custom answer", nil)
		return
	}
	respond.JSON(c, http.StatusCreated, toResponse(saved))
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	err := h.Svc.Delete(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "custom answer not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete custom answer", nil)
		return
	}
	respond.OK(c, gin.H{"ok": true})
}
