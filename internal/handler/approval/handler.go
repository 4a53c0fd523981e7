// Package approval carries the patient-facing consent submission. It is
// deliberately outside the bearer-token surface: possession of a matching
// per-patient access token is the only credential.
package approval

import (
	"github.com/gin-gonic/gin"

	"github.com/rsmedika/consent-api/internal/model"
	"github.com/rsmedika/consent-api/internal/service/patient"
	"github.com/rsmedika/consent-api/pkg/httputil"
)

type Handler struct {
	svc *patient.Service
}

func NewHandler(svc *patient.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/approvals", h.Submit)
}

func (h *Handler) Submit(c *gin.Context) {
	var req model.SubmitApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.svc.SubmitApproval(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "approval submitted successfully", p)
}
