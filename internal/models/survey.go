package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SurveyStatus is the three-state completion status the resolver produces.
// Approval layering on top of `completed` is a downstream concern.
type SurveyStatus string

const (
	SurveyStatusNotStarted SurveyStatus = "not_started"
	SurveyStatusInProgress SurveyStatus = "in_progress"
	SurveyStatusCompleted  SurveyStatus = "completed"
)

// StatusSource names the tier a resolution came from.
type StatusSource string

const (
	SourceAuthoritative StatusSource = "authoritative"
	SourceFallback      StatusSource = "fallback"
	SourceNone          StatusSource = "none"
)

// JSONMap is a free-form JSON object persisted as JSONB.
type JSONMap map[string]interface{}

// Value marshals the map for persistence.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan unmarshals JSONB payloads into the map.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	raw, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unexpected type %T for JSONMap", value)
	}
	return json.Unmarshal(raw, m)
}

// EmbeddedEmail digs a participant email out of a responses payload. Two
// historical shapes exist: `participantInfo.email` and a top-level `email`.
func (m JSONMap) EmbeddedEmail() string {
	if info, ok := m["participantInfo"].(map[string]interface{}); ok {
		if email, ok := info["email"].(string); ok && email != "" {
			return email
		}
	}
	if email, ok := m["email"].(string); ok {
		return email
	}
	return ""
}

// SurveySubmission is an immutable record of a completed survey.
type SurveySubmission struct {
	ID          string    `db:"id" json:"id"`
	LearnerID   *string   `db:"learner_id" json:"learner_id,omitempty"`
	LearnerName string    `db:"learner_name" json:"learner_name"`
	Responses   JSONMap   `db:"responses" json:"responses"`
	Status      string    `db:"status" json:"status"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
}

// SurveyProgress is a mutable, single-row-per-learner record of in-flight
// answers.
type SurveyProgress struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	CurrentSection  int       `db:"current_section" json:"current_section"`
	CurrentQuestion int       `db:"current_question" json:"current_question"`
	Answers         JSONMap   `db:"answers" json:"answers"`
	ParticipantInfo JSONMap   `db:"participant_info" json:"participant_info"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Learner carries the identity attributes the resolver matches on. Any subset
// may be present.
type Learner struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// FallbackSubmission is the degraded-mode record shape written to the local
// cache when the authoritative store rejected a submission. It has no stable
// id; matching is by participant name/email only.
type FallbackSubmission struct {
	ParticipantName  string    `json:"participant_name"`
	ParticipantEmail string    `json:"participant_email"`
	Responses        JSONMap   `json:"responses"`
	Status           string    `json:"status"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

// Canonical adapts a fallback record into the authoritative submission shape.
func (f FallbackSubmission) Canonical() *SurveySubmission {
	responses := f.Responses
	if responses == nil {
		responses = JSONMap{}
	}
	if f.ParticipantEmail != "" && responses.EmbeddedEmail() == "" {
		responses["email"] = f.ParticipantEmail
	}
	return &SurveySubmission{
		LearnerName: f.ParticipantName,
		Responses:   responses,
		Status:      f.Status,
		SubmittedAt: f.SubmittedAt,
	}
}

// FallbackProgress mirrors SurveyProgress for the degraded tier.
type FallbackProgress struct {
	ParticipantName  string    `json:"participant_name"`
	ParticipantEmail string    `json:"participant_email"`
	CurrentSection   int       `json:"current_section"`
	CurrentQuestion  int       `json:"current_question"`
	Answers          JSONMap   `json:"answers"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Canonical adapts a fallback progress record into the authoritative shape.
func (f FallbackProgress) Canonical() *SurveyProgress {
	info := JSONMap{}
	if f.ParticipantName != "" {
		info["name"] = f.ParticipantName
	}
	if f.ParticipantEmail != "" {
		info["email"] = f.ParticipantEmail
	}
	return &SurveyProgress{
		CurrentSection:  f.CurrentSection,
		CurrentQuestion: f.CurrentQuestion,
		Answers:         f.Answers,
		ParticipantInfo: info,
		UpdatedAt:       f.UpdatedAt,
	}
}
