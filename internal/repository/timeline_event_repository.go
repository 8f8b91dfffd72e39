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

// TimelineEventRepository handles persistence for course timeline events.
type TimelineEventRepository struct {
	db *sqlx.DB
}

// NewTimelineEventRepository creates the repository.
func NewTimelineEventRepository(db *sqlx.DB) *TimelineEventRepository {
	return &TimelineEventRepository{db: db}
}

const eventColumns = `id, course_schedule_id, event_type, event_date, event_time, email_template_id,
target_recipients, event_data, status, created_at, updated_at`

// List returns events matching the filter, ordered by event date.
func (r *TimelineEventRepository) List(ctx context.Context, filter models.TimelineEventFilter) ([]models.TimelineEvent, int, error) {
	base := "FROM timeline_events WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CourseScheduleID != "" {
		conditions = append(conditions, fmt.Sprintf("course_schedule_id = $%d", len(args)+1))
		args = append(args, filter.CourseScheduleID)
	}
	if filter.EventType != "" {
		conditions = append(conditions, fmt.Sprintf("event_type = $%d", len(args)+1))
		args = append(args, filter.EventType)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY event_date ASC, event_time ASC, id ASC LIMIT %d OFFSET %d", eventColumns, base, size, offset)
	var events []models.TimelineEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timeline events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timeline events: %w", err)
	}

	return events, total, nil
}

// GetByID loads an event by identifier.
func (r *TimelineEventRepository) GetByID(ctx context.Context, id string) (*models.TimelineEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM timeline_events WHERE id = $1`, eventColumns)
	var event models.TimelineEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create inserts a new event with status pending.
func (r *TimelineEventRepository) Create(ctx context.Context, event *models.TimelineEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Status == "" {
		event.Status = models.EventStatusPending
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	const query = `INSERT INTO timeline_events (id, course_schedule_id, event_type, event_date, event_time, email_template_id,
target_recipients, event_data, status, created_at, updated_at)
VALUES (:id, :course_schedule_id, :event_type, :event_date, :event_time, :email_template_id,
:target_recipients, :event_data, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create timeline event: %w", err)
	}
	return nil
}

// Update modifies an existing event's schedule and payload fields.
func (r *TimelineEventRepository) Update(ctx context.Context, event *models.TimelineEvent) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timeline_events SET event_type = :event_type, event_date = :event_date, event_time = :event_time,
email_template_id = :email_template_id, target_recipients = :target_recipients, event_data = :event_data, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("update timeline event: %w", err)
	}
	return nil
}

// Delete removes an event.
func (r *TimelineEventRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM timeline_events WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete timeline event: %w", err)
	}
	return nil
}

// UpdateStatus transitions an event out of pending. The guard in the WHERE
// clause enforces that sent/failed are terminal.
func (r *TimelineEventRepository) UpdateStatus(ctx context.Context, id string, status models.TimelineEventStatus) (bool, error) {
	const query = `UPDATE timeline_events SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id, models.EventStatusPending)
	if err != nil {
		return false, fmt.Errorf("update timeline event status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update timeline event status: %w", err)
	}
	return affected == 1, nil
}
