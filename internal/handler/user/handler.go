package user

import (
	"github.com/gin-gonic/gin"

	"github.com/rsmedika/consent-api/internal/middleware"
	"github.com/rsmedika/consent-api/internal/model"
	"github.com/rsmedika/consent-api/internal/service/user"
	apperrors "github.com/rsmedika/consent-api/pkg/errors"
	"github.com/rsmedika/consent-api/pkg/httputil"
)

type Handler struct {
	svc  *user.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *user.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("", h.auth.RequirePermission(model.CapAllAccess), h.List)
		users.POST("", h.auth.RequirePermission(model.CapManageUsers), h.Create)
		users.POST("/password", h.auth.RequirePermission(model.CapAllAccess), h.ChangePassword)
		users.POST("/status", h.auth.RequirePermission(model.CapAllAccess), h.ToggleStatus)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	created, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondCreated(c, created)
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), req.Username, req.NewPassword); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "password changed successfully", nil)
}

func (h *Handler) ToggleStatus(c *gin.Context) {
	var req model.ToggleUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	session := middleware.SessionFromContext(c)
	if session == nil {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required"))
		return
	}

	if err := h.svc.SetActive(c.Request.Context(), session.Username, req.Username, *req.IsActive); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "user status updated", nil)
}

func (h *Handler) List(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, users)
}
