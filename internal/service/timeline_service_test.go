package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexlearn/campaign-api/internal/models"
	appErrors "github.com/apexlearn/campaign-api/pkg/errors"
)

type fakeEventStore struct {
	events map[string]*models.TimelineEvent
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: map[string]*models.TimelineEvent{}}
}

func (f *fakeEventStore) List(_ context.Context, filter models.TimelineEventFilter) ([]models.TimelineEvent, int, error) {
	var out []models.TimelineEvent
	for _, e := range f.events {
		if filter.CourseScheduleID != "" && e.CourseScheduleID != filter.CourseScheduleID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (f *fakeEventStore) GetByID(_ context.Context, id string) (*models.TimelineEvent, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *e
	return &clone, nil
}

func (f *fakeEventStore) Create(_ context.Context, event *models.TimelineEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	clone := *event
	f.events[event.ID] = &clone
	return nil
}

func (f *fakeEventStore) Update(_ context.Context, event *models.TimelineEvent) error {
	if _, ok := f.events[event.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *event
	f.events[event.ID] = &clone
	return nil
}

func (f *fakeEventStore) Delete(_ context.Context, id string) error {
	delete(f.events, id)
	return nil
}

func (f *fakeEventStore) UpdateStatus(_ context.Context, id string, status models.TimelineEventStatus) (bool, error) {
	e, ok := f.events[id]
	if !ok || e.Status != models.EventStatusPending {
		return false, nil
	}
	e.Status = status
	return true, nil
}

type fakeTemplateStore struct {
	templates map[string]*models.EmailTemplate
}

func (f *fakeTemplateStore) GetByID(_ context.Context, id string) (*models.EmailTemplate, error) {
	tmpl, ok := f.templates[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return tmpl, nil
}

func (f *fakeTemplateStore) List(context.Context) ([]models.EmailTemplate, error) {
	out := make([]models.EmailTemplate, 0, len(f.templates))
	for _, tmpl := range f.templates {
		out = append(out, *tmpl)
	}
	return out, nil
}

func (f *fakeTemplateStore) Create(_ context.Context, tmpl *models.EmailTemplate) error {
	if tmpl.ID == "" {
		tmpl.ID = uuid.NewString()
	}
	f.templates[tmpl.ID] = tmpl
	return nil
}

func newTimelineFixture() (*TimelineService, *fakeEventStore, *fakeTemplateStore, *fakeCampaignStore) {
	events := newFakeEventStore()
	templates := &fakeTemplateStore{templates: map[string]*models.EmailTemplate{}}
	campaignStore := newFakeCampaignStore()
	campaignSvc := NewCampaignService(campaignStore, nil, nil, nil)
	svc := NewTimelineService(events, templates, campaignSvc, nil, nil)
	return svc, events, templates, campaignStore
}

func validEventRequest() CreateTimelineEventRequest {
	return CreateTimelineEventRequest{
		CourseScheduleID: "cs-1",
		EventType:        "email_reminder",
		EventDate:        "2026-04-01",
		EventTime:        "10:00:00",
		TargetRecipients: []string{"ana@example.com"},
		EventData:        models.TimelineEventData{CourseName: "Go Fundamentals"},
	}
}

func TestTimelineServiceCreateDefaultsPending(t *testing.T) {
	svc, _, _, _ := newTimelineFixture()

	event, err := svc.Create(context.Background(), validEventRequest())
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusPending, event.Status)
	assert.Equal(t, models.EventTypeEmailReminder, event.EventType)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), event.EventDate)
}

func TestTimelineServiceCreateRejectsUnknownEventType(t *testing.T) {
	svc, _, _, _ := newTimelineFixture()

	req := validEventRequest()
	req.EventType = "birthday_party"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimelineServiceGetUnknownID(t *testing.T) {
	svc, _, _, _ := newTimelineFixture()

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimelineServiceUpdate(t *testing.T) {
	svc, _, _, _ := newTimelineFixture()

	event, err := svc.Create(context.Background(), validEventRequest())
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), event.ID, UpdateTimelineEventRequest{
		EventType:        "survey_due",
		EventDate:        "2026-04-15",
		EventTime:        "16:00",
		TargetRecipients: []string{"ben@example.com"},
		EventData:        models.TimelineEventData{SurveyName: "Exit Survey"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.EventTypeSurveyDue, updated.EventType)
	assert.Equal(t, "16:00", updated.EventTime)
}

func TestTimelineServiceMaterializeCreatesCampaignsFromTemplate(t *testing.T) {
	svc, _, templates, _ := newTimelineFixture()

	templates.templates["tpl-1"] = &models.EmailTemplate{
		ID:              "tpl-1",
		SubjectTemplate: "{{course_name}} on {{event_date}}",
		ContentTemplate: "<p>{{course_name}} starts at {{event_time}}.</p>",
	}
	tplID := "tpl-1"
	req := validEventRequest()
	req.EmailTemplateID = &tplID
	req.TargetRecipients = []string{"ana@example.com", "ben@example.com"}
	event, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	campaigns, err := svc.MaterializeCampaigns(context.Background(), "cs-1")
	require.NoError(t, err)
	require.Len(t, campaigns, 2)
	for _, c := range campaigns {
		assert.Equal(t, "Go Fundamentals on 2026-04-01", c.EmailSubject)
		assert.Contains(t, c.EmailContent, "10:00:00")
		require.NotNil(t, c.TimelineEventID)
		assert.Equal(t, event.ID, *c.TimelineEventID)
		assert.Equal(t, models.CampaignStatusScheduled, c.Status)
	}
}

func TestTimelineServiceMaterializeSkipsNonEmailAndIncompleteEvents(t *testing.T) {
	svc, _, _, _ := newTimelineFixture()

	// module_unlock never produces email.
	unlock := validEventRequest()
	unlock.EventType = "module_unlock"
	_, err := svc.Create(context.Background(), unlock)
	require.NoError(t, err)

	// Email event without a template is skipped, not fatal.
	noTemplate := validEventRequest()
	_, err = svc.Create(context.Background(), noTemplate)
	require.NoError(t, err)

	// Email event referencing a missing template is skipped too.
	ghost := "tpl-ghost"
	missingTemplate := validEventRequest()
	missingTemplate.EmailTemplateID = &ghost
	_, err = svc.Create(context.Background(), missingTemplate)
	require.NoError(t, err)

	campaigns, err := svc.MaterializeCampaigns(context.Background(), "cs-1")
	require.NoError(t, err)
	assert.Empty(t, campaigns)
}

func TestTimelineServiceMirrorOutcome(t *testing.T) {
	svc, events, _, _ := newTimelineFixture()

	event, err := svc.Create(context.Background(), validEventRequest())
	require.NoError(t, err)

	require.NoError(t, svc.MirrorOutcome(context.Background(), event.ID, models.Sent("prov-1")))
	assert.Equal(t, models.EventStatusSent, events.events[event.ID].Status)

	// Terminal status holds: a late failure does not rewind it.
	require.NoError(t, svc.MirrorOutcome(context.Background(), event.ID, models.Failed("late")))
	assert.Equal(t, models.EventStatusSent, events.events[event.ID].Status)
}

func TestTimelineServiceCreateTemplate(t *testing.T) {
	svc, _, templates, _ := newTimelineFixture()

	tmpl, err := svc.CreateTemplate(context.Background(), CreateEmailTemplateRequest{
		Name:            "course-start",
		SubjectTemplate: "{{course_name}} starts soon",
		ContentTemplate: "<p>See you on {{event_date}}.</p>",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tmpl.ID)
	assert.Contains(t, templates.templates, tmpl.ID)

	listed, err := svc.ListTemplates(context.Background())
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	_, err = svc.CreateTemplate(context.Background(), CreateEmailTemplateRequest{Name: "incomplete"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
