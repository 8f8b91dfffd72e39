package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/apexlearn/campaign-api/internal/models"
	"github.com/apexlearn/campaign-api/internal/service"
	appErrors "github.com/apexlearn/campaign-api/pkg/errors"
	"github.com/apexlearn/campaign-api/pkg/response"
)

type timelineManager interface {
	List(ctx context.Context, filter models.TimelineEventFilter) ([]models.TimelineEvent, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.TimelineEvent, error)
	Create(ctx context.Context, req service.CreateTimelineEventRequest) (*models.TimelineEvent, error)
	Update(ctx context.Context, id string, req service.UpdateTimelineEventRequest) (*models.TimelineEvent, error)
	Delete(ctx context.Context, id string) error
	MaterializeCampaigns(ctx context.Context, courseScheduleID string) ([]models.EmailCampaign, error)
	ListTemplates(ctx context.Context) ([]models.EmailTemplate, error)
	CreateTemplate(ctx context.Context, req service.CreateEmailTemplateRequest) (*models.EmailTemplate, error)
}

// TimelineHandler wires timeline event management to HTTP routes.
type TimelineHandler struct {
	timeline timelineManager
}

// NewTimelineHandler constructs a new TimelineHandler.
func NewTimelineHandler(timeline timelineManager) *TimelineHandler {
	return &TimelineHandler{timeline: timeline}
}

// List godoc
// @Summary List timeline events
// @Tags TimelineEvents
// @Produce json
// @Param course_schedule_id query string false "Filter by course schedule"
// @Param event_type query string false "Filter by event type"
// @Param status query string false "Filter by status (pending/sent/failed)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timeline-events [get]
func (h *TimelineHandler) List(c *gin.Context) {
	filter := models.TimelineEventFilter{
		CourseScheduleID: c.Query("course_schedule_id"),
		EventType:        models.TimelineEventType(c.Query("event_type")),
		Status:           models.TimelineEventStatus(c.Query("status")),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	events, pagination, err := h.timeline.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Get timeline event detail
// @Tags TimelineEvents
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /timeline-events/{id} [get]
func (h *TimelineHandler) Get(c *gin.Context) {
	event, err := h.timeline.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Create godoc
// @Summary Create timeline event
// @Tags TimelineEvents
// @Accept json
// @Produce json
// @Param payload body service.CreateTimelineEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /timeline-events [post]
func (h *TimelineHandler) Create(c *gin.Context) {
	var req service.CreateTimelineEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timeline event payload"))
		return
	}

	event, err := h.timeline.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update timeline event
// @Tags TimelineEvents
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body service.UpdateTimelineEventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Router /timeline-events/{id} [put]
func (h *TimelineHandler) Update(c *gin.Context) {
	var req service.UpdateTimelineEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timeline event payload"))
		return
	}

	event, err := h.timeline.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete timeline event
// @Tags TimelineEvents
// @Produce json
// @Param id path string true "Event ID"
// @Success 204 {object} nil
// @Router /timeline-events/{id} [delete]
func (h *TimelineHandler) Delete(c *gin.Context) {
	if err := h.timeline.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListTemplates godoc
// @Summary List email templates
// @Tags TimelineEvents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /email-templates [get]
func (h *TimelineHandler) ListTemplates(c *gin.Context) {
	templates, err := h.timeline.ListTemplates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// CreateTemplate godoc
// @Summary Create email template
// @Tags TimelineEvents
// @Accept json
// @Produce json
// @Param payload body service.CreateEmailTemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Router /email-templates [post]
func (h *TimelineHandler) CreateTemplate(c *gin.Context) {
	var req service.CreateEmailTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid email template payload"))
		return
	}

	tmpl, err := h.timeline.CreateTemplate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tmpl)
}

// Materialize godoc
// @Summary Materialize campaigns from pending email events
// @Description Creates scheduled campaigns for every pending email-type event of the course schedule.
// @Tags TimelineEvents
// @Produce json
// @Param id path string true "Course schedule ID"
// @Success 201 {object} response.Envelope
// @Router /course-schedules/{id}/materialize [post]
func (h *TimelineHandler) Materialize(c *gin.Context) {
	campaigns, err := h.timeline.MaterializeCampaigns(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, campaigns)
}
