package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/apexlearn/campaign-api/internal/models"
	"github.com/apexlearn/campaign-api/internal/template"
	appErrors "github.com/apexlearn/campaign-api/pkg/errors"
)

type campaignStore interface {
	CreateBatch(ctx context.Context, campaigns []*models.EmailCampaign) error
	GetByID(ctx context.Context, id string) (*models.EmailCampaign, error)
	List(ctx context.Context, filter models.CampaignFilter) ([]models.EmailCampaign, int, error)
	ListDue(ctx context.Context, now time.Time) ([]models.EmailCampaign, error)
	MarkSending(ctx context.Context, id string) (bool, error)
	MarkSent(ctx context.Context, id, providerMessageID string) (bool, error)
	MarkFailed(ctx context.Context, id, reason string) (bool, error)
	ListStaleSending(ctx context.Context, cutoff time.Time) ([]models.EmailCampaign, error)
}

// CampaignService owns the campaign lifecycle: fan-out creation with frozen
// content, due selection, and the scheduled→sending→sent|failed transitions.
type CampaignService struct {
	repo      campaignStore
	renderer  *template.Engine
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCampaignService constructs the service.
func NewCampaignService(repo campaignStore, renderer *template.Engine, validate *validator.Validate, logger *zap.Logger) *CampaignService {
	if renderer == nil {
		renderer = template.NewEngine()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CampaignService{repo: repo, renderer: renderer, validator: validate, logger: logger}
}

// CreateCampaignRequest describes one campaign fan-out.
type CreateCampaignRequest struct {
	CourseScheduleID string                 `json:"course_schedule_id" validate:"required"`
	TimelineEventID  *string                `json:"timeline_event_id,omitempty"`
	CampaignType     string                 `json:"campaign_type" validate:"required"`
	Recipients       []string               `json:"recipients" validate:"required,min=1,dive,email"`
	ScheduledDate    string                 `json:"scheduled_date" validate:"required"`
	ScheduledTime    string                 `json:"scheduled_time" validate:"required"`
	SubjectTemplate  string                 `json:"subject_template" validate:"required"`
	ContentTemplate  string                 `json:"content_template" validate:"required"`
	Variables        map[string]interface{} `json:"variables,omitempty"`
}

// Create materializes one scheduled campaign per recipient. Subject and
// content are rendered now and never re-rendered, freezing personalization at
// creation time.
func (s *CampaignService) Create(ctx context.Context, req CreateCampaignRequest) ([]models.EmailCampaign, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campaign payload")
	}

	scheduledDate, scheduledFor, err := parseSchedule(req.ScheduledDate, req.ScheduledTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unparsable scheduled date/time")
	}

	campaigns := make([]*models.EmailCampaign, 0, len(req.Recipients))
	for _, recipient := range req.Recipients {
		vars := make(map[string]interface{}, len(req.Variables)+1)
		for k, v := range req.Variables {
			vars[k] = v
		}
		vars["recipient_email"] = recipient

		campaigns = append(campaigns, &models.EmailCampaign{
			CourseScheduleID: req.CourseScheduleID,
			TimelineEventID:  req.TimelineEventID,
			CampaignType:     req.CampaignType,
			RecipientEmail:   recipient,
			ScheduledDate:    scheduledDate,
			ScheduledTime:    req.ScheduledTime,
			ScheduledFor:     scheduledFor,
			EmailSubject:     s.renderer.Render(req.SubjectTemplate, vars),
			EmailContent:     s.renderer.Render(req.ContentTemplate, vars),
			Status:           models.CampaignStatusScheduled,
		})
	}

	if err := s.repo.CreateBatch(ctx, campaigns); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to create campaigns")
	}

	s.logger.Info("campaigns created",
		zap.String("course_schedule_id", req.CourseScheduleID),
		zap.String("campaign_type", req.CampaignType),
		zap.Int("recipients", len(campaigns)),
		zap.Time("scheduled_for", scheduledFor),
	)

	out := make([]models.EmailCampaign, len(campaigns))
	for i, c := range campaigns {
		out[i] = *c
	}
	return out, nil
}

// Due returns scheduled campaigns whose due instant has passed, ordered by
// due instant ascending then id ascending.
func (s *CampaignService) Due(ctx context.Context, now time.Time) ([]models.EmailCampaign, error) {
	campaigns, err := s.repo.ListDue(ctx, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list due campaigns")
	}
	return campaigns, nil
}

// Get loads a campaign by id.
func (s *CampaignService) Get(ctx context.Context, id string) (*models.EmailCampaign, error) {
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load campaign")
	}
	return campaign, nil
}

// List returns campaigns with pagination.
func (s *CampaignService) List(ctx context.Context, filter models.CampaignFilter) ([]models.EmailCampaign, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	campaigns, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list campaigns")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return campaigns, pagination, nil
}

// MarkSending attempts the scheduled→sending transition. The boolean reports
// whether this caller won the compare-and-set; false means another dispatch
// already claimed the campaign.
func (s *CampaignService) MarkSending(ctx context.Context, id string) (bool, error) {
	won, err := s.repo.MarkSending(ctx, id)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to mark campaign sending")
	}
	if !won {
		// Distinguish a lost race from an unknown id.
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			if err == sql.ErrNoRows {
				return false, appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
			}
			return false, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load campaign")
		}
	}
	return won, nil
}

// MarkResult records the dispatch outcome, transitioning sending→sent or
// sending→failed. Both are terminal; failed campaigns are never auto-retried.
func (s *CampaignService) MarkResult(ctx context.Context, id string, outcome models.SendOutcome) error {
	var (
		won bool
		err error
	)
	switch outcome.Status {
	case models.OutcomeSent:
		won, err = s.repo.MarkSent(ctx, id, outcome.ProviderMessageID)
	case models.OutcomeFailed:
		won, err = s.repo.MarkFailed(ctx, id, outcome.Reason)
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown outcome status %q", outcome.Status))
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to record campaign outcome")
	}
	if !won {
		return appErrors.Clone(appErrors.ErrAlreadyProcessing, "campaign is not in sending state")
	}

	if outcome.Status == models.OutcomeFailed {
		s.logger.Warn("campaign failed", zap.String("campaign_id", id), zap.String("reason", outcome.Reason))
	} else {
		s.logger.Info("campaign sent", zap.String("campaign_id", id), zap.String("provider_message_id", outcome.ProviderMessageID))
	}
	return nil
}

// StaleSending lists campaigns stuck in `sending` since before the cutoff.
func (s *CampaignService) StaleSending(ctx context.Context, cutoff time.Time) ([]models.EmailCampaign, error) {
	campaigns, err := s.repo.ListStaleSending(ctx, cutoff)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list stale campaigns")
	}
	return campaigns, nil
}

// parseSchedule combines the date and time strings into the due instant.
// Times accept HH:MM and HH:MM:SS.
func parseSchedule(dateStr, timeStr string) (time.Time, time.Time, error) {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad date %q: %w", dateStr, err)
	}

	var clock time.Time
	clock, err = time.Parse("15:04:05", timeStr)
	if err != nil {
		clock, err = time.Parse("15:04", timeStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad time %q: %w", timeStr, err)
		}
	}

	due := time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC)
	return date, due, nil
}
