package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// TimelineEventType enumerates the dated occurrences a course schedule emits.
type TimelineEventType string

const (
	EventTypeEmailReminder  TimelineEventType = "email_reminder"
	EventTypeCourseReminder TimelineEventType = "course_reminder"
	EventTypeModuleUnlock   TimelineEventType = "module_unlock"
	EventTypeSurveyDue      TimelineEventType = "survey_due"
)

// IsEmailType reports whether the event type materializes into email campaigns.
func (t TimelineEventType) IsEmailType() bool {
	return t == EventTypeEmailReminder || t == EventTypeCourseReminder || t == EventTypeSurveyDue
}

// TimelineEventStatus captures the lifecycle of an event. Transitions only go
// pending→sent or pending→failed, never backward.
type TimelineEventStatus string

const (
	EventStatusPending TimelineEventStatus = "pending"
	EventStatusSent    TimelineEventStatus = "sent"
	EventStatusFailed  TimelineEventStatus = "failed"
)

// TimelineEventData carries the typed payload attached to an event, with a
// free-form extras map for forward-compatible fields. Persisted as JSONB.
type TimelineEventData struct {
	CourseName string            `json:"courseName,omitempty"`
	ModuleName string            `json:"moduleName,omitempty"`
	SurveyName string            `json:"surveyName,omitempty"`
	CourseURL  string            `json:"courseUrl,omitempty"`
	Extras     map[string]string `json:"extras,omitempty"`
}

// Value marshals the payload to JSON for persistence.
func (d TimelineEventData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan unmarshals JSON payloads into the struct.
func (d *TimelineEventData) Scan(value interface{}) error {
	if value == nil {
		*d = TimelineEventData{}
		return nil
	}
	raw, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unexpected type %T for TimelineEventData", value)
	}
	return json.Unmarshal(raw, d)
}

// Variables flattens the payload into template variables.
func (d TimelineEventData) Variables() map[string]interface{} {
	vars := map[string]interface{}{}
	if d.CourseName != "" {
		vars["course_name"] = d.CourseName
	}
	if d.ModuleName != "" {
		vars["module_name"] = d.ModuleName
	}
	if d.SurveyName != "" {
		vars["survey_name"] = d.SurveyName
	}
	if d.CourseURL != "" {
		vars["course_url"] = d.CourseURL
	}
	for k, v := range d.Extras {
		vars[k] = v
	}
	return vars
}

// TimelineEvent is a dated, typed occurrence tied to a course schedule. It is
// created when a course is scheduled and mutated only when its derived
// campaigns are dispatched.
type TimelineEvent struct {
	ID               string              `db:"id" json:"id"`
	CourseScheduleID string              `db:"course_schedule_id" json:"course_schedule_id"`
	EventType        TimelineEventType   `db:"event_type" json:"event_type"`
	EventDate        time.Time           `db:"event_date" json:"event_date"`
	EventTime        string              `db:"event_time" json:"event_time"`
	EmailTemplateID  *string             `db:"email_template_id" json:"email_template_id,omitempty"`
	TargetRecipients pq.StringArray      `db:"target_recipients" json:"target_recipients"`
	EventData        TimelineEventData   `db:"event_data" json:"event_data"`
	Status           TimelineEventStatus `db:"status" json:"status"`
	CreatedAt        time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time           `db:"updated_at" json:"updated_at"`
}

// TimelineEventFilter narrows event listings.
type TimelineEventFilter struct {
	CourseScheduleID string
	EventType        TimelineEventType
	Status           TimelineEventStatus
	Page             int
	PageSize         int
}
