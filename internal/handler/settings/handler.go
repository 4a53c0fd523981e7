package settings

import (
	"github.com/gin-gonic/gin"

	"github.com/rsmedika/consent-api/internal/middleware"
	"github.com/rsmedika/consent-api/internal/model"
	"github.com/rsmedika/consent-api/internal/service/settings"
	apperrors "github.com/rsmedika/consent-api/pkg/errors"
	"github.com/rsmedika/consent-api/pkg/httputil"
)

type Handler struct {
	svc *settings.Service
}

func NewHandler(svc *settings.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the settings endpoints. Both require a verified
// session but no specific capability.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/settings", h.Get)
	r.POST("/settings", h.Update)
}

func (h *Handler) Get(c *gin.Context) {
	current, err := h.svc.Get(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, current)
}

func (h *Handler) Update(c *gin.Context) {
	var req model.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	session := middleware.SessionFromContext(c)
	if session == nil {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required"))
		return
	}

	if err := h.svc.Update(c.Request.Context(), req.PatientBaseURL, session.Username); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "settings updated successfully", nil)
}
