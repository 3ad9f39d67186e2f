package fieldmap

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"autofill-backend/internal/answers"
	"autofill-backend/internal/profile"
	"autofill-backend/internal/shared/cache"
	"autofill-backend/internal/shared/metrics"
	"autofill-backend/internal/shared/server/middleware"
	"autofill-backend/internal/shared/server/respond"
	"autofill-backend/internal/shared/telemetry"
)

// contextCacheTTL bounds how stale the merged autofill context may get.
// Profile and custom-answer writes drop the entry early.
const contextCacheTTL = 5 * time.Minute

// Handler wires the extension-facing mapping routes to the services.
type Handler struct {
	Svc      *Service
	Recorder *Recorder
	Profiles *profile.Service
	Answers  *answers.Service
	Cache    cache.Cache
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, recorder *Recorder, profiles *profile.Service, customAnswers *answers.Service, ctxCache cache.Cache) *Handler {
	return &Handler{
		Svc:      svc,
		Recorder: recorder,
		Profiles: profiles,
		Answers:  customAnswers,
		Cache:    ctxCache,
	}
}

// ContextCacheKey is the per-user autofill-context cache key. Change hooks on
// the profile and custom-answer services delete it.
func ContextCacheKey(userID string) string {
	return "autofill_ctx:" + userID
}

// RegisterRoutes attaches the auth-guarded extension routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/form-fields/map", h.mapFields)
	rg.POST("/form-fields/submit-feedback", h.submitFeedback)
	rg.GET("/form-structure/check", h.checkFormStructure)
	rg.POST("/selectors/best-batch", h.bestSelectors)
	rg.GET("/autofill/context", h.autofillContext)
}

// RegisterPublicRoutes attaches routes served without auth. Extensions report
// errors even when the user is logged out.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/errors/report", h.reportError)
}

type mapFieldsRequest struct {
	Fields        []Field           `json:"fields"`
	Profile       map[string]string `json:"profile"`
	CustomAnswers map[string]string `json:"custom_answers"`
	ResumeExcerpt string            `json:"resume_excerpt"`
	Platform      string            `json:"platform"`
	Domain        string            `json:"domain"`
}

func (h *Handler) mapFields(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req mapFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid mapping body", nil)
		return
	}
	if len(req.Fields) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "fields are required", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))

	// A request without an inline profile resolves against the stored one.
	// Nil means absent; an explicit empty object stays empty.
	flat := req.Profile
	resumeExcerpt := req.ResumeExcerpt
	if flat == nil && h.Profiles != nil {
		doc, err := h.Profiles.Get(ctx, userID)
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load profile", nil)
			return
		}
		flat = profile.Flatten(doc)
		if resumeExcerpt == "" {
			resumeExcerpt = profile.ResumeText(doc)
		}
	}
	customAnswers := req.CustomAnswers
	if customAnswers == nil && h.Answers != nil {
		m, err := h.Answers.AsMap(ctx, userID)
		if err != nil {
			telemetry.Error("fieldmap.custom_answers_load_failed", map[string]any{
				"user_id": userID,
				"error":   sanitizeError(err),
			})
		} else {
			customAnswers = m
		}
	}

	out, err := h.Svc.Resolve(ctx, ResolveInput{
		UserID:        userID,
		Fields:        req.Fields,
		Profile:       flat,
		CustomAnswers: customAnswers,
		ResumeExcerpt: resumeExcerpt,
		Platform:      req.Platform,
	})
	if err != nil {
		if errors.Is(err, ErrNoFields) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "fields are required", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to map fields", nil)
		return
	}
	respond.OK(c, out)
}

type submitFeedbackRequest struct {
	Domain              string          `json:"domain"`
	URL                 string          `json:"url"`
	ATSPlatform         string          `json:"ats_platform"`
	IsMultiStep         bool            `json:"is_multi_step"`
	StepCount           int             `json:"step_count"`
	UnfilledProfileKeys []string        `json:"unfilled_profile_keys"`
	Fields              []FieldFeedback `json:"fields"`
}

func (h *Handler) submitFeedback(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req submitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid feedback body", nil)
		return
	}

	learned, err := h.Recorder.Record(c.Request.Context(), RecordInput{
		UserID:              userID,
		Domain:              req.Domain,
		URL:                 req.URL,
		ATSPlatform:         req.ATSPlatform,
		IsMultiStep:         req.IsMultiStep,
		StepCount:           req.StepCount,
		UnfilledProfileKeys: req.UnfilledProfileKeys,
		Fields:              req.Fields,
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to record feedback", nil)
		return
	}
	respond.OK(c, gin.H{"ok": true, "learned": learned})
}

func (h *Handler) checkFormStructure(c *gin.Context) {
	check, err := h.Svc.CheckFormStructure(c.Request.Context(), c.Query("domain"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to check form structure", nil)
		return
	}
	if !check.Found {
		respond.OK(c, gin.H{"found": false})
		return
	}

	selectors := make(gin.H, len(check.BestSelectors))
	for fp, sel := range check.BestSelectors {
		selectors[fp] = gin.H{
			"selector":      sel.Selector,
			"type":          sel.Type,
			"success_count": sel.SuccessCount,
		}
	}
	respond.OK(c, gin.H{
		"found":          true,
		"field_fps":      check.FieldFPs,
		"ats_platform":   check.ATSPlatform,
		"confidence":     check.Confidence,
		"best_selectors": selectors,
		"is_multi_step":  check.IsMultiStep,
		"step_count":     check.StepCount,
	})
}

type bestSelectorsRequest struct {
	FieldFPs    []string `json:"field_fps"`
	FPs         []string `json:"fps"`
	ATSPlatform string   `json:"ats_platform"`
}

func (h *Handler) bestSelectors(c *gin.Context) {
	var req bestSelectorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid selector batch body", nil)
		return
	}
	fps := req.FieldFPs
	if len(fps) == 0 {
		fps = req.FPs
	}

	result, err := h.Svc.BestSelectorsBatch(c.Request.Context(), fps, req.ATSPlatform)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to look up selectors", nil)
		return
	}
	respond.OK(c, gin.H{"selectors": result})
}

type autofillContextPayload struct {
	Profile       map[string]string `json:"profile"`
	ResumeExcerpt string            `json:"resume_excerpt"`
	ResumeURL     string            `json:"resume_url"`
	CustomAnswers map[string]string `json:"custom_answers"`
}

// autofillContext returns everything the extension needs at session start in
// one call: flat profile, resume text, saved custom answers.
func (h *Handler) autofillContext(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	ctx := c.Request.Context()
	key := ContextCacheKey(userID)

	if h.Cache != nil {
		if raw, ok := h.Cache.Get(ctx, key); ok {
			var cached autofillContextPayload
			if err := json.Unmarshal(raw, &cached); err == nil {
				respond.OK(c, cached)
				return
			}
		}
	}

	doc, err := h.Profiles.Get(ctx, userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load profile", nil)
		return
	}

	customAnswers := map[string]string{}
	if h.Answers != nil {
		m, err := h.Answers.AsMap(ctx, userID)
		if err != nil {
			telemetry.Error("fieldmap.custom_answers_load_failed", map[string]any{
				"user_id": userID,
				"error":   sanitizeError(err),
			})
		} else {
			customAnswers = m
		}
	}

	payload := autofillContextPayload{
		Profile:       profile.Flatten(doc),
		ResumeExcerpt: profile.ResumeText(doc),
		ResumeURL:     doc.ResumeURL,
		CustomAnswers: customAnswers,
	}
	if h.Cache != nil {
		if raw, err := json.Marshal(payload); err == nil {
			h.Cache.Set(ctx, key, raw, contextCacheTTL)
		}
	}

	telemetry.Info("fieldmap.autofill_context", map[string]any{
		"user_id":      userID,
		"profile_keys": len(payload.Profile),
		"resume_chars": len(payload.ResumeExcerpt),
	})
	respond.OK(c, payload)
}

type errorReportRequest struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	URL         string `json:"url"`
	Environment string `json:"environment"`
}

// reportError accepts extension error reports for monitoring.
func (h *Handler) reportError(c *gin.Context) {
	var req errorReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid error report", nil)
		return
	}
	kind := req.Type
	if kind == "" {
		kind = "unknown"
	}
	metrics.IncErrorReport()
	telemetry.Error("extension.error_report", map[string]any{
		"type":        kind,
		"message":     clampString(req.Message, 200),
		"url":         clampString(req.URL, 100),
		"environment": req.Environment,
	})
	c.Status(http.StatusNoContent)
}

func clampString(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}
