package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/apexlearn/campaign-api/internal/dto"
	"github.com/apexlearn/campaign-api/internal/models"
	"github.com/apexlearn/campaign-api/internal/service"
	appErrors "github.com/apexlearn/campaign-api/pkg/errors"
	"github.com/apexlearn/campaign-api/pkg/export"
	"github.com/apexlearn/campaign-api/pkg/response"
)

type campaignManager interface {
	Create(ctx context.Context, req service.CreateCampaignRequest) ([]models.EmailCampaign, error)
	Get(ctx context.Context, id string) (*models.EmailCampaign, error)
	List(ctx context.Context, filter models.CampaignFilter) ([]models.EmailCampaign, *models.Pagination, error)
}

type campaignDispatcher interface {
	SendImmediate(ctx context.Context, campaignID string) (models.SendOutcome, error)
	ProcessScheduled(ctx context.Context, now time.Time) (int, error)
	ReconcileStuck(ctx context.Context, now time.Time) (int, error)
}

// CampaignHandler wires campaign scheduling and dispatch to HTTP routes.
type CampaignHandler struct {
	campaigns  campaignManager
	dispatcher campaignDispatcher
}

// NewCampaignHandler constructs a new CampaignHandler.
func NewCampaignHandler(campaigns campaignManager, dispatcher campaignDispatcher) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns, dispatcher: dispatcher}
}

// Create godoc
// @Summary Create scheduled campaigns
// @Description Fans out one campaign per recipient with content frozen at creation time.
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param payload body service.CreateCampaignRequest true "Campaign payload"
// @Success 201 {object} response.Envelope
// @Router /campaigns [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	var req service.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campaign payload"))
		return
	}

	campaigns, err := h.campaigns.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, campaigns)
}

// List godoc
// @Summary List campaigns
// @Tags Campaigns
// @Produce json
// @Param course_schedule_id query string false "Filter by course schedule"
// @Param status query string false "Filter by status (scheduled/sending/sent/failed)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /campaigns [get]
func (h *CampaignHandler) List(c *gin.Context) {
	filter := models.CampaignFilter{
		CourseScheduleID: c.Query("course_schedule_id"),
		Status:           models.CampaignStatus(c.Query("status")),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	campaigns, pagination, err := h.campaigns.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campaigns, pagination)
}

// Get godoc
// @Summary Get campaign detail
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Router /campaigns/{id} [get]
func (h *CampaignHandler) Get(c *gin.Context) {
	campaign, err := h.campaigns.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campaign, nil)
}

// SendImmediate godoc
// @Summary Send a campaign now
// @Description Claims the campaign and dispatches it immediately, bypassing the schedule.
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /campaigns/{id}/send [post]
func (h *CampaignHandler) SendImmediate(c *gin.Context) {
	outcome, err := h.dispatcher.SendImmediate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

// ProcessScheduled godoc
// @Summary Run the scheduled-email sweep
// @Description Claims and dispatches every campaign whose due instant has passed.
// @Tags Campaigns
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /campaigns/process-scheduled [post]
func (h *CampaignHandler) ProcessScheduled(c *gin.Context) {
	processed, err := h.dispatcher.ProcessScheduled(c.Request.Context(), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SweepResponse{Processed: processed}, nil)
}

// ExportCSV godoc
// @Summary Export campaigns as CSV
// @Description Streams the campaign audit trail matching the filters.
// @Tags Campaigns
// @Produce text/csv
// @Param course_schedule_id query string false "Filter by course schedule"
// @Param status query string false "Filter by status"
// @Success 200 {string} string "CSV payload"
// @Router /campaigns/export [get]
func (h *CampaignHandler) ExportCSV(c *gin.Context) {
	filter := models.CampaignFilter{
		CourseScheduleID: c.Query("course_schedule_id"),
		Status:           models.CampaignStatus(c.Query("status")),
		Page:             1,
		PageSize:         100,
	}

	var campaigns []models.EmailCampaign
	for {
		batch, page, err := h.campaigns.List(c.Request.Context(), filter)
		if err != nil {
			response.Error(c, err)
			return
		}
		campaigns = append(campaigns, batch...)
		if len(campaigns) >= page.TotalCount || len(batch) == 0 {
			break
		}
		filter.Page++
	}

	headers := []string{"id", "course_schedule_id", "campaign_type", "recipient_email", "scheduled_for", "status", "provider_message_id", "failure_reason"}
	rows := make([]map[string]string, 0, len(campaigns))
	for i := range campaigns {
		cmp := campaigns[i]
		row := map[string]string{
			"id":                 cmp.ID,
			"course_schedule_id": cmp.CourseScheduleID,
			"campaign_type":      cmp.CampaignType,
			"recipient_email":    cmp.RecipientEmail,
			"scheduled_for":      cmp.ScheduledFor.Format(time.RFC3339),
			"status":             string(cmp.Status),
		}
		if cmp.ProviderMessageID != nil {
			row["provider_message_id"] = *cmp.ProviderMessageID
		}
		if cmp.FailureReason != nil {
			row["failure_reason"] = *cmp.FailureReason
		}
		rows = append(rows, row)
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="campaigns.csv"`)
	c.Status(http.StatusOK)
	if err := export.NewCSVExporter().Write(c.Writer, export.Dataset{Headers: headers, Rows: rows}); err != nil {
		c.Error(err) //nolint:errcheck
	}
}

// ReconcileStuck godoc
// @Summary Fail campaigns stuck in sending
// @Description Transitions campaigns that exceeded the sending TTL into failed.
// @Tags Campaigns
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /campaigns/reconcile-stuck [post]
func (h *CampaignHandler) ReconcileStuck(c *gin.Context) {
	reconciled, err := h.dispatcher.ReconcileStuck(c.Request.Context(), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ReconcileResponse{Reconciled: reconciled}, nil)
}
