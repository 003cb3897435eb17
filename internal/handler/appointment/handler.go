package appointment

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/healthbook/healthbook-api/internal/model"
	appointmentService "github.com/healthbook/healthbook-api/internal/service/appointment"
	"github.com/healthbook/healthbook-api/pkg/apperror"
	"github.com/healthbook/healthbook-api/pkg/httputil"
)

type Handler struct {
	service *appointmentService.Service
}

func NewHandler(service *appointmentService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Schedule(c *gin.Context) {
	var req model.ScheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondError(c, apperror.Validation("all fields are required"))
		return
	}

	apt, err := h.service.Schedule(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	httputil.RespondCreated(c, apt)
}

func (h *Handler) List(c *gin.Context) {
	var userID *uuid.UUID
	if raw := c.Query("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondError(c, apperror.Validation("invalid userId"))
			return
		}
		userID = &id
	}

	appointments, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	if appointments == nil {
		appointments = []*model.Appointment{}
	}
	httputil.RespondOK(c, appointments)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondError(c, apperror.NotFound("appointment"))
		return
	}

	apt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	httputil.RespondOK(c, apt)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondError(c, apperror.NotFound("appointment"))
		return
	}

	apt, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	httputil.RespondOK(c, apt)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.Schedule)
		appointments.GET("", h.List)
		appointments.GET("/:id", h.Get)
		appointments.PATCH("/:id/cancel", h.Cancel)
	}
}
