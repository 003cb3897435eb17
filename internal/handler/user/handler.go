package user

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/healthbook/healthbook-api/internal/middleware"
	userService "github.com/healthbook/healthbook-api/internal/service/user"
	"github.com/healthbook/healthbook-api/internal/storage"
	"github.com/healthbook/healthbook-api/pkg/apperror"
	"github.com/healthbook/healthbook-api/pkg/httputil"
)

type Handler struct {
	service *userService.Service
	images  *storage.ImageStore
}

func NewHandler(service *userService.Service, images *storage.ImageStore) *Handler {
	return &Handler{service: service, images: images}
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondError(c, apperror.NotFound("user"))
		return
	}

	user, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	httputil.RespondOK(c, user)
}

func (h *Handler) Me(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == uuid.Nil {
		httputil.RespondError(c, apperror.Unauthorized("authentication required"))
		return
	}

	user, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	httputil.RespondOK(c, user)
}

// UploadAvatar accepts a multipart image, stores it on disk and saves the
// resulting URL on the caller's profile.
func (h *Handler) UploadAvatar(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == uuid.Nil {
		httputil.RespondError(c, apperror.Unauthorized("authentication required"))
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		httputil.RespondError(c, apperror.Validation("image file is required"))
		return
	}

	url, err := h.images.Save(c, file)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	user, err := h.service.SetAvatar(c.Request.Context(), userID, url)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	httputil.RespondOK(c, user)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("/me", h.Me)
		users.GET("/:id", h.Get)
		users.POST("/me/avatar", h.UploadAvatar)
	}
}
