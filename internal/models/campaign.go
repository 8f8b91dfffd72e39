package models

import "time"

// CampaignStatus captures the campaign dispatch state machine:
// scheduled → sending → sent | failed. The terminal states are final; a
// failed campaign is only ever re-sent through an explicit new campaign.
type CampaignStatus string

const (
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusSending   CampaignStatus = "sending"
	CampaignStatusSent      CampaignStatus = "sent"
	CampaignStatusFailed    CampaignStatus = "failed"
)

// EmailCampaign is one concrete, addressed, rendered email. One row is
// materialized per (event, recipient) pair at creation time so that content
// personalization is frozen; rows are retained indefinitely for audit.
type EmailCampaign struct {
	ID               string         `db:"id" json:"id"`
	CourseScheduleID string         `db:"course_schedule_id" json:"course_schedule_id"`
	TimelineEventID  *string        `db:"timeline_event_id" json:"timeline_event_id,omitempty"`
	CampaignType     string         `db:"campaign_type" json:"campaign_type"`
	RecipientEmail   string         `db:"recipient_email" json:"recipient_email"`
	ScheduledDate    time.Time      `db:"scheduled_date" json:"scheduled_date"`
	ScheduledTime    string         `db:"scheduled_time" json:"scheduled_time"`
	// ScheduledFor is the due instant derived from ScheduledDate and
	// ScheduledTime; due queries and ordering use it.
	ScheduledFor      time.Time      `db:"scheduled_for" json:"scheduled_for"`
	EmailSubject      string         `db:"email_subject" json:"email_subject"`
	EmailContent      string         `db:"email_content" json:"email_content"`
	Status            CampaignStatus `db:"status" json:"status"`
	ProviderMessageID *string        `db:"provider_message_id" json:"provider_message_id,omitempty"`
	FailureReason     *string        `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// CampaignFilter narrows campaign listings.
type CampaignFilter struct {
	CourseScheduleID string
	Status           CampaignStatus
	Page             int
	PageSize         int
}

// SendOutcomeStatus distinguishes dispatch results.
type SendOutcomeStatus string

const (
	OutcomeSent   SendOutcomeStatus = "sent"
	OutcomeFailed SendOutcomeStatus = "failed"
)

// SendOutcome records the result of sending one campaign.
type SendOutcome struct {
	Status            SendOutcomeStatus `json:"status"`
	ProviderMessageID string            `json:"provider_message_id,omitempty"`
	Reason            string            `json:"reason,omitempty"`
}

// Sent builds a successful outcome.
func Sent(providerID string) SendOutcome {
	return SendOutcome{Status: OutcomeSent, ProviderMessageID: providerID}
}

// Failed builds a failed outcome.
func Failed(reason string) SendOutcome {
	return SendOutcome{Status: OutcomeFailed, Reason: reason}
}

// EmailTemplate is a stored subject/body pair referenced by timeline events.
type EmailTemplate struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	SubjectTemplate string    `db:"subject_template" json:"subject_template"`
	ContentTemplate string    `db:"content_template" json:"content_template"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
