package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/apexlearn/campaign-api/internal/models"
)

// CampaignRepository provides persistence for email campaigns. All state
// transitions are compare-and-set updates guarded by the expected current
// status, which is what makes dispatch safe under overlapping sweeps.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository creates the repository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

const campaignColumns = `id, course_schedule_id, timeline_event_id, campaign_type, recipient_email,
scheduled_date, scheduled_time, scheduled_for, email_subject, email_content, status,
provider_message_id, failure_reason, created_at, updated_at`

// CreateBatch inserts the campaign fan-out for one create call in a single
// transaction so a store failure commits no partial state.
func (r *CampaignRepository) CreateBatch(ctx context.Context, campaigns []*models.EmailCampaign) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin campaign batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO email_campaigns (id, course_schedule_id, timeline_event_id, campaign_type, recipient_email,
scheduled_date, scheduled_time, scheduled_for, email_subject, email_content, status, created_at, updated_at)
VALUES (:id, :course_schedule_id, :timeline_event_id, :campaign_type, :recipient_email,
:scheduled_date, :scheduled_time, :scheduled_for, :email_subject, :email_content, :status, :created_at, :updated_at)`

	now := time.Now().UTC()
	for _, campaign := range campaigns {
		if campaign.ID == "" {
			campaign.ID = uuid.NewString()
		}
		if campaign.CreatedAt.IsZero() {
			campaign.CreatedAt = now
		}
		campaign.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, campaign); err != nil {
			return fmt.Errorf("insert campaign: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit campaign batch: %w", err)
	}
	return nil
}

// GetByID loads a campaign by identifier.
func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*models.EmailCampaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM email_campaigns WHERE id = $1`, campaignColumns)
	var campaign models.EmailCampaign
	if err := r.db.GetContext(ctx, &campaign, query, id); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// List returns campaigns matching the filter.
func (r *CampaignRepository) List(ctx context.Context, filter models.CampaignFilter) ([]models.EmailCampaign, int, error) {
	base := "FROM email_campaigns WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CourseScheduleID != "" {
		conditions = append(conditions, fmt.Sprintf("course_schedule_id = $%d", len(args)+1))
		args = append(args, filter.CourseScheduleID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY scheduled_for DESC, id ASC LIMIT %d OFFSET %d", campaignColumns, base, size, offset)
	var campaigns []models.EmailCampaign
	if err := r.db.SelectContext(ctx, &campaigns, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	return campaigns, total, nil
}

// ListDue returns every scheduled campaign whose due instant is at or before
// now, ordered by due instant then id. The deterministic order matters: the
// sweep and its tests rely on it.
func (r *CampaignRepository) ListDue(ctx context.Context, now time.Time) ([]models.EmailCampaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM email_campaigns
WHERE status = $1 AND scheduled_for <= $2
ORDER BY scheduled_for ASC, id ASC`, campaignColumns)
	var campaigns []models.EmailCampaign
	if err := r.db.SelectContext(ctx, &campaigns, query, models.CampaignStatusScheduled, now); err != nil {
		return nil, fmt.Errorf("list due campaigns: %w", err)
	}
	return campaigns, nil
}

// MarkSending atomically transitions scheduled→sending. Returns false when
// the campaign was not in `scheduled` state, i.e. the CAS lost.
func (r *CampaignRepository) MarkSending(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE email_campaigns SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, models.CampaignStatusSending, time.Now().UTC(), id, models.CampaignStatusScheduled)
	if err != nil {
		return false, fmt.Errorf("mark campaign sending: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark campaign sending: %w", err)
	}
	return affected == 1, nil
}

// MarkSent atomically transitions sending→sent, recording the provider
// message id.
func (r *CampaignRepository) MarkSent(ctx context.Context, id, providerMessageID string) (bool, error) {
	const query = `UPDATE email_campaigns SET status = $1, provider_message_id = $2, updated_at = $3
WHERE id = $4 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, models.CampaignStatusSent, providerMessageID, time.Now().UTC(), id, models.CampaignStatusSending)
	if err != nil {
		return false, fmt.Errorf("mark campaign sent: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark campaign sent: %w", err)
	}
	return affected == 1, nil
}

// MarkFailed atomically transitions sending→failed, recording the reason.
func (r *CampaignRepository) MarkFailed(ctx context.Context, id, reason string) (bool, error) {
	const query = `UPDATE email_campaigns SET status = $1, failure_reason = $2, updated_at = $3
WHERE id = $4 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, models.CampaignStatusFailed, reason, time.Now().UTC(), id, models.CampaignStatusSending)
	if err != nil {
		return false, fmt.Errorf("mark campaign failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark campaign failed: %w", err)
	}
	return affected == 1, nil
}

// ListStaleSending returns campaigns stuck in `sending` since before the
// cutoff. These are candidates for the reconciler's Failed transition.
func (r *CampaignRepository) ListStaleSending(ctx context.Context, cutoff time.Time) ([]models.EmailCampaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM email_campaigns
WHERE status = $1 AND updated_at < $2
ORDER BY updated_at ASC, id ASC`, campaignColumns)
	var campaigns []models.EmailCampaign
	if err := r.db.SelectContext(ctx, &campaigns, query, models.CampaignStatusSending, cutoff); err != nil {
		return nil, fmt.Errorf("list stale sending campaigns: %w", err)
	}
	return campaigns, nil
}
