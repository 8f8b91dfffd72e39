package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/apexlearn/campaign-api/internal/models"
	appErrors "github.com/apexlearn/campaign-api/pkg/errors"
)

type submissionWriter interface {
	Create(ctx context.Context, submission *models.SurveySubmission) error
}

type progressWriter interface {
	Upsert(ctx context.Context, progress *models.SurveyProgress) error
}

type fallbackWriter interface {
	SaveSubmission(ctx context.Context, record models.FallbackSubmission) error
	SaveProgress(ctx context.Context, record models.FallbackProgress) error
}

// RecordSubmissionRequest is a completed survey arriving from the platform.
type RecordSubmissionRequest struct {
	LearnerID   string         `json:"learner_id"`
	LearnerName string         `json:"learner_name" validate:"required"`
	Responses   models.JSONMap `json:"responses"`
	Status      string         `json:"status"`
}

// RecordProgressRequest saves a learner's current position in the survey.
type RecordProgressRequest struct {
	UserID          string         `json:"user_id" validate:"required"`
	CurrentSection  int            `json:"current_section" validate:"min=0"`
	CurrentQuestion int            `json:"current_question" validate:"min=0"`
	Answers         models.JSONMap `json:"answers"`
	ParticipantInfo models.JSONMap `json:"participant_info"`
}

// SurveyIntakeService accepts survey writes. The authoritative store is tried
// first; when it rejects the write, the record lands in the fallback tier so
// the learner's status can still be resolved later. A write never succeeds in
// both tiers.
type SurveyIntakeService struct {
	submissions submissionWriter
	progress    progressWriter
	fallback    fallbackWriter
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewSurveyIntakeService constructs the service.
func NewSurveyIntakeService(submissions submissionWriter, progress progressWriter, fallback fallbackWriter, validate *validator.Validate, logger *zap.Logger) *SurveyIntakeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SurveyIntakeService{
		submissions: submissions,
		progress:    progress,
		fallback:    fallback,
		validate:    validate,
		logger:      logger,
	}
}

// RecordSubmission persists a completed survey, preferring the authoritative
// store. The returned source tells the caller which tier accepted the write.
func (s *SurveyIntakeService) RecordSubmission(ctx context.Context, req RecordSubmissionRequest) (*models.SurveySubmission, models.StatusSource, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, models.SourceNone, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	submission := &models.SurveySubmission{
		LearnerName: req.LearnerName,
		Responses:   req.Responses,
		Status:      req.Status,
		SubmittedAt: time.Now().UTC(),
	}
	if req.LearnerID != "" {
		submission.LearnerID = &req.LearnerID
	}
	if submission.Status == "" {
		submission.Status = "submitted"
	}
	if submission.Responses == nil {
		submission.Responses = models.JSONMap{}
	}

	err := s.submissions.Create(ctx, submission)
	if err == nil {
		return submission, models.SourceAuthoritative, nil
	}
	s.logger.Error("authoritative submission write failed, degrading to fallback",
		zap.String("learner_name", req.LearnerName), zap.Error(err))

	record := models.FallbackSubmission{
		ParticipantName:  req.LearnerName,
		ParticipantEmail: submission.Responses.EmbeddedEmail(),
		Responses:        submission.Responses,
		Status:           submission.Status,
		SubmittedAt:      submission.SubmittedAt,
	}
	if s.fallback == nil {
		return nil, models.SourceNone, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to record submission")
	}
	if fbErr := s.fallback.SaveSubmission(ctx, record); fbErr != nil {
		return nil, models.SourceNone, appErrors.Wrap(fbErr, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to record submission")
	}
	return record.Canonical(), models.SourceFallback, nil
}

// RecordProgress upserts the learner's in-flight answers, degrading to the
// fallback tier the same way RecordSubmission does.
func (s *SurveyIntakeService) RecordProgress(ctx context.Context, req RecordProgressRequest) (*models.SurveyProgress, models.StatusSource, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, models.SourceNone, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress payload")
	}

	progress := &models.SurveyProgress{
		UserID:          req.UserID,
		CurrentSection:  req.CurrentSection,
		CurrentQuestion: req.CurrentQuestion,
		Answers:         req.Answers,
		ParticipantInfo: req.ParticipantInfo,
	}
	if progress.Answers == nil {
		progress.Answers = models.JSONMap{}
	}
	if progress.ParticipantInfo == nil {
		progress.ParticipantInfo = models.JSONMap{}
	}

	err := s.progress.Upsert(ctx, progress)
	if err == nil {
		return progress, models.SourceAuthoritative, nil
	}
	s.logger.Error("authoritative progress write failed, degrading to fallback",
		zap.String("user_id", req.UserID), zap.Error(err))

	name, _ := progress.ParticipantInfo["name"].(string)
	email, _ := progress.ParticipantInfo["email"].(string)
	record := models.FallbackProgress{
		ParticipantName:  name,
		ParticipantEmail: email,
		CurrentSection:   req.CurrentSection,
		CurrentQuestion:  req.CurrentQuestion,
		Answers:          progress.Answers,
		UpdatedAt:        time.Now().UTC(),
	}
	if s.fallback == nil {
		return nil, models.SourceNone, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to record progress")
	}
	if fbErr := s.fallback.SaveProgress(ctx, record); fbErr != nil {
		return nil, models.SourceNone, appErrors.Wrap(fbErr, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to record progress")
	}
	return record.Canonical(), models.SourceFallback, nil
}
