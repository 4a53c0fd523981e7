package patient

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rsmedika/consent-api/internal/middleware"
	"github.com/rsmedika/consent-api/internal/model"
	"github.com/rsmedika/consent-api/internal/service/patient"
	"github.com/rsmedika/consent-api/pkg/httputil"
)

type Handler struct {
	svc  *patient.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *patient.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

// RegisterRoutes wires the roster endpoints. Every route names its required
// capability explicitly; Authenticate has already run on the group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.GET("", h.auth.RequirePermission(model.CapViewPatients), h.List)
		patients.POST("", h.auth.RequirePermission(model.CapAddPatient), h.Save)
		patients.GET("/export", h.auth.RequirePermission(model.CapExportCSV), h.ExportCSV)
		patients.GET("/export/xlsx", h.auth.RequirePermission(model.CapExportCSV), h.ExportXLSX)
		patients.GET("/:mrn", h.auth.RequirePermission(model.CapViewPatients), h.Get)
		patients.PUT("/:mrn", h.auth.RequirePermission(model.CapEditPatient), h.Update)
		patients.DELETE("/:mrn", h.auth.RequirePermission(model.CapDeletePatient), h.Delete)
	}
}

func (h *Handler) Save(c *gin.Context) {
	var req model.UpsertPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, created, err := h.svc.Save(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if created {
		httputil.RespondCreated(c, p)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) Update(c *gin.Context) {
	var req model.UpsertPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	req.MRN = c.Param("mrn")

	if err := h.svc.UpdateDetails(c.Request.Context(), &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "patient updated successfully", nil)
}

func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	patients, page, limit, total, err := h.svc.List(c.Request.Context(), page, limit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithPagination(c, patients, page, limit, total)
}

func (h *Handler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("mrn"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	// The single-record view is for reviewing consent state; the link
	// token only surfaces through save responses and the roster list.
	p.AccessToken = nil
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("mrn")); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "patient deleted successfully", nil)
}

func (h *Handler) ExportCSV(c *gin.Context) {
	buf, err := h.svc.ExportCSV(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="patients.csv"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func (h *Handler) ExportXLSX(c *gin.Context) {
	buf, err := h.svc.ExportXLSX(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="patients.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
