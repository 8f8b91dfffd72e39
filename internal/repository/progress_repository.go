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

// ProgressRepository is the authoritative store for in-flight survey answers,
// one row per user.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates the repository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

const progressColumns = `id, user_id, current_section, current_question, answers, participant_info, updated_at`

// Upsert saves the learner's current position, replacing any prior row.
func (r *ProgressRepository) Upsert(ctx context.Context, progress *models.SurveyProgress) error {
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	progress.UpdatedAt = time.Now().UTC()

	const query = `INSERT INTO survey_progress (id, user_id, current_section, current_question, answers, participant_info, updated_at)
VALUES (:id, :user_id, :current_section, :current_question, :answers, :participant_info, :updated_at)
ON CONFLICT (user_id) DO UPDATE SET current_section = EXCLUDED.current_section,
current_question = EXCLUDED.current_question, answers = EXCLUDED.answers,
participant_info = EXCLUDED.participant_info, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, progress); err != nil {
		return fmt.Errorf("upsert survey progress: %w", err)
	}
	return nil
}

// FindByUserID loads the progress row keyed by the stable session/user id.
func (r *ProgressRepository) FindByUserID(ctx context.Context, userID string) (*models.SurveyProgress, error) {
	query := fmt.Sprintf(`SELECT %s FROM survey_progress WHERE user_id = $1`, progressColumns)
	var progress models.SurveyProgress
	if err := r.db.GetContext(ctx, &progress, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find survey progress: %w", err)
	}
	return &progress, nil
}
