package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/apexlearn/campaign-api/internal/models"
	appErrors "github.com/apexlearn/campaign-api/pkg/errors"
)

type timelineEventStore interface {
	List(ctx context.Context, filter models.TimelineEventFilter) ([]models.TimelineEvent, int, error)
	GetByID(ctx context.Context, id string) (*models.TimelineEvent, error)
	Create(ctx context.Context, event *models.TimelineEvent) error
	Update(ctx context.Context, event *models.TimelineEvent) error
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status models.TimelineEventStatus) (bool, error)
}

type emailTemplateStore interface {
	GetByID(ctx context.Context, id string) (*models.EmailTemplate, error)
	List(ctx context.Context) ([]models.EmailTemplate, error)
	Create(ctx context.Context, tmpl *models.EmailTemplate) error
}

type campaignCreator interface {
	Create(ctx context.Context, req CreateCampaignRequest) ([]models.EmailCampaign, error)
}

// TimelineService manages course timeline events and turns email-type events
// into scheduled campaigns.
type TimelineService struct {
	events    timelineEventStore
	templates emailTemplateStore
	campaigns campaignCreator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimelineService constructs the service.
func NewTimelineService(events timelineEventStore, templates emailTemplateStore, campaigns campaignCreator, validate *validator.Validate, logger *zap.Logger) *TimelineService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &TimelineService{events: events, templates: templates, campaigns: campaigns, validator: validate, logger: logger}
	svc.validator.RegisterValidation("event_type", func(fl validator.FieldLevel) bool {
		switch models.TimelineEventType(fl.Field().String()) {
		case models.EventTypeEmailReminder, models.EventTypeCourseReminder, models.EventTypeModuleUnlock, models.EventTypeSurveyDue:
			return true
		default:
			return false
		}
	})
	return svc
}

// CreateTimelineEventRequest describes the create payload.
type CreateTimelineEventRequest struct {
	CourseScheduleID string                   `json:"course_schedule_id" validate:"required"`
	EventType        string                   `json:"event_type" validate:"required,event_type"`
	EventDate        string                   `json:"event_date" validate:"required"`
	EventTime        string                   `json:"event_time" validate:"required"`
	EmailTemplateID  *string                  `json:"email_template_id,omitempty"`
	TargetRecipients []string                 `json:"target_recipients,omitempty" validate:"omitempty,dive,email"`
	EventData        models.TimelineEventData `json:"event_data"`
}

// UpdateTimelineEventRequest describes the update payload.
type UpdateTimelineEventRequest struct {
	EventType        string                   `json:"event_type" validate:"required,event_type"`
	EventDate        string                   `json:"event_date" validate:"required"`
	EventTime        string                   `json:"event_time" validate:"required"`
	EmailTemplateID  *string                  `json:"email_template_id,omitempty"`
	TargetRecipients []string                 `json:"target_recipients,omitempty" validate:"omitempty,dive,email"`
	EventData        models.TimelineEventData `json:"event_data"`
}

// List returns events with pagination.
func (s *TimelineService) List(ctx context.Context, filter models.TimelineEventFilter) ([]models.TimelineEvent, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	events, total, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list timeline events")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return events, pagination, nil
}

// Get returns an event by id.
func (s *TimelineService) Get(ctx context.Context, id string) (*models.TimelineEvent, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timeline event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load timeline event")
	}
	return event, nil
}

// Create registers a new pending event.
func (s *TimelineService) Create(ctx context.Context, req CreateTimelineEventRequest) (*models.TimelineEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timeline event payload")
	}
	eventDate, _, err := parseSchedule(req.EventDate, req.EventTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unparsable event date/time")
	}

	event := &models.TimelineEvent{
		CourseScheduleID: req.CourseScheduleID,
		EventType:        models.TimelineEventType(req.EventType),
		EventDate:        eventDate,
		EventTime:        req.EventTime,
		EmailTemplateID:  req.EmailTemplateID,
		TargetRecipients: pq.StringArray(req.TargetRecipients),
		EventData:        req.EventData,
		Status:           models.EventStatusPending,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to create timeline event")
	}
	return event, nil
}

// Update modifies an existing event's schedule and payload.
func (s *TimelineService) Update(ctx context.Context, id string, req UpdateTimelineEventRequest) (*models.TimelineEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timeline event payload")
	}
	eventDate, _, err := parseSchedule(req.EventDate, req.EventTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unparsable event date/time")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.EventType = models.TimelineEventType(req.EventType)
	existing.EventDate = eventDate
	existing.EventTime = req.EventTime
	existing.EmailTemplateID = req.EmailTemplateID
	existing.TargetRecipients = pq.StringArray(req.TargetRecipients)
	existing.EventData = req.EventData
	if err := s.events.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to update timeline event")
	}
	return existing, nil
}

// Delete removes an event.
func (s *TimelineService) Delete(ctx context.Context, id string) error {
	if err := s.events.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to delete timeline event")
	}
	return nil
}

// CreateEmailTemplateRequest describes a reusable subject/content template
// pair.
type CreateEmailTemplateRequest struct {
	Name            string `json:"name" validate:"required"`
	SubjectTemplate string `json:"subject_template" validate:"required"`
	ContentTemplate string `json:"content_template" validate:"required"`
}

// ListTemplates returns every email template.
func (s *TimelineService) ListTemplates(ctx context.Context) ([]models.EmailTemplate, error) {
	templates, err := s.templates.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list email templates")
	}
	return templates, nil
}

// CreateTemplate stores a new email template for materialization to use.
func (s *TimelineService) CreateTemplate(ctx context.Context, req CreateEmailTemplateRequest) (*models.EmailTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid email template payload")
	}
	tmpl := &models.EmailTemplate{
		Name:            req.Name,
		SubjectTemplate: req.SubjectTemplate,
		ContentTemplate: req.ContentTemplate,
	}
	if err := s.templates.Create(ctx, tmpl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to create email template")
	}
	return tmpl, nil
}

// MaterializeCampaigns turns every pending email-type event of a course
// schedule into scheduled campaigns, one per recipient, using the event's
// email template. Events without a template or recipients are skipped.
func (s *TimelineService) MaterializeCampaigns(ctx context.Context, courseScheduleID string) ([]models.EmailCampaign, error) {
	events, _, err := s.events.List(ctx, models.TimelineEventFilter{
		CourseScheduleID: courseScheduleID,
		Status:           models.EventStatusPending,
		PageSize:         100,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list timeline events")
	}

	var created []models.EmailCampaign
	for i := range events {
		event := events[i]
		if !event.EventType.IsEmailType() {
			continue
		}
		if event.EmailTemplateID == nil || len(event.TargetRecipients) == 0 {
			s.logger.Warn("skipping email event without template or recipients",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.EventType)))
			continue
		}

		tmpl, err := s.templates.GetByID(ctx, *event.EmailTemplateID)
		if err != nil {
			if err == sql.ErrNoRows {
				s.logger.Warn("skipping event referencing unknown template",
					zap.String("event_id", event.ID),
					zap.String("email_template_id", *event.EmailTemplateID))
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load email template")
		}

		vars := event.EventData.Variables()
		vars["event_date"] = event.EventDate.Format("2006-01-02")
		vars["event_time"] = event.EventTime

		campaigns, err := s.campaigns.Create(ctx, CreateCampaignRequest{
			CourseScheduleID: event.CourseScheduleID,
			TimelineEventID:  &event.ID,
			CampaignType:     string(event.EventType),
			Recipients:       []string(event.TargetRecipients),
			ScheduledDate:    event.EventDate.Format("2006-01-02"),
			ScheduledTime:    event.EventTime,
			SubjectTemplate:  tmpl.SubjectTemplate,
			ContentTemplate:  tmpl.ContentTemplate,
			Variables:        vars,
		})
		if err != nil {
			return nil, err
		}
		created = append(created, campaigns...)
	}

	s.logger.Info("campaigns materialized",
		zap.String("course_schedule_id", courseScheduleID),
		zap.Int("campaigns", len(created)))
	return created, nil
}

// MirrorOutcome updates an event's status to reflect its campaign's dispatch
// outcome. Only pending events move; sent/failed are terminal.
func (s *TimelineService) MirrorOutcome(ctx context.Context, eventID string, outcome models.SendOutcome) error {
	status := models.EventStatusSent
	if outcome.Status == models.OutcomeFailed {
		status = models.EventStatusFailed
	}
	moved, err := s.events.UpdateStatus(ctx, eventID, status)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to mirror event status")
	}
	if !moved {
		s.logger.Debug("event already terminal, outcome not mirrored", zap.String("event_id", eventID))
	}
	return nil
}
