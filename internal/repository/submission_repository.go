package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/apexlearn/campaign-api/internal/models"
)

// SubmissionRepository is the authoritative store for completed survey
// submissions. Lookup methods mirror the resolver's match precedence; each
// returns sql.ErrNoRows untouched so callers can distinguish a miss from a
// store failure.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository creates the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `id, learner_id, learner_name, responses, status, submitted_at`

// Create inserts an immutable submission record.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.SurveySubmission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}

	const query = `INSERT INTO survey_submissions (id, learner_id, learner_name, responses, status, submitted_at)
VALUES (:id, :learner_id, :learner_name, :responses, :status, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("create survey submission: %w", err)
	}
	return nil
}

// FindByLearnerID matches on the stable learner identifier.
func (r *SubmissionRepository) FindByLearnerID(ctx context.Context, learnerID string) (*models.SurveySubmission, error) {
	query := fmt.Sprintf(`SELECT %s FROM survey_submissions WHERE learner_id = $1 ORDER BY submitted_at DESC LIMIT 1`, submissionColumns)
	return r.getOne(ctx, query, learnerID)
}

// FindByNameExact matches on case-sensitive learner name equality.
func (r *SubmissionRepository) FindByNameExact(ctx context.Context, name string) (*models.SurveySubmission, error) {
	query := fmt.Sprintf(`SELECT %s FROM survey_submissions WHERE learner_name = $1 ORDER BY submitted_at DESC LIMIT 1`, submissionColumns)
	return r.getOne(ctx, query, name)
}

// FindByNameFold matches on case-insensitive learner name equality.
func (r *SubmissionRepository) FindByNameFold(ctx context.Context, name string) (*models.SurveySubmission, error) {
	query := fmt.Sprintf(`SELECT %s FROM survey_submissions WHERE LOWER(learner_name) = LOWER($1) ORDER BY submitted_at DESC LIMIT 1`, submissionColumns)
	return r.getOne(ctx, query, name)
}

// FindByEmbeddedEmail matches an email buried in the responses payload. Both
// historical payload shapes are checked.
func (r *SubmissionRepository) FindByEmbeddedEmail(ctx context.Context, email string) (*models.SurveySubmission, error) {
	query := fmt.Sprintf(`SELECT %s FROM survey_submissions
WHERE responses->'participantInfo'->>'email' = $1 OR responses->>'email' = $1
ORDER BY submitted_at DESC LIMIT 1`, submissionColumns)
	return r.getOne(ctx, query, email)
}

func (r *SubmissionRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.SurveySubmission, error) {
	var submission models.SurveySubmission
	if err := r.db.GetContext(ctx, &submission, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find survey submission: %w", err)
	}
	return &submission, nil
}
