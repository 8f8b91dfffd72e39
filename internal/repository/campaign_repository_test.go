package repository

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/apexlearn/campaign-api/internal/models"
)

func newCampaignRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func campaignColumnsList() []string {
	return []string{"id", "course_schedule_id", "timeline_event_id", "campaign_type", "recipient_email",
		"scheduled_date", "scheduled_time", "scheduled_for", "email_subject", "email_content", "status",
		"provider_message_id", "failure_reason", "created_at", "updated_at"}
}

func campaignRow(id string, status models.CampaignStatus, scheduledFor time.Time) []driver.Value {
	now := time.Now().UTC()
	return []driver.Value{id, "cs-1", nil, "email_reminder", "learner@example.com",
		scheduledFor.Truncate(24 * time.Hour), "09:00:00", scheduledFor, "Subject", "<p>Body</p>", string(status),
		nil, nil, now, now}
}

func TestCampaignRepositoryCreateBatch(t *testing.T) {
	db, mock, cleanup := newCampaignRepoMock(t)
	defer cleanup()

	repo := NewCampaignRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO email_campaigns")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO email_campaigns")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	campaigns := []*models.EmailCampaign{
		{CourseScheduleID: "cs-1", CampaignType: "email_reminder", RecipientEmail: "a@example.com", Status: models.CampaignStatusScheduled},
		{CourseScheduleID: "cs-1", CampaignType: "email_reminder", RecipientEmail: "b@example.com", Status: models.CampaignStatusScheduled},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), campaigns))
	require.NotEmpty(t, campaigns[0].ID)
	require.NotEmpty(t, campaigns[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepositoryCreateBatchRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newCampaignRepoMock(t)
	defer cleanup()

	repo := NewCampaignRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO email_campaigns")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO email_campaigns")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	campaigns := []*models.EmailCampaign{
		{CourseScheduleID: "cs-1", RecipientEmail: "a@example.com", Status: models.CampaignStatusScheduled},
		{CourseScheduleID: "cs-1", RecipientEmail: "b@example.com", Status: models.CampaignStatusScheduled},
	}
	require.Error(t, repo.CreateBatch(context.Background(), campaigns))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepositoryListDueOrdering(t *testing.T) {
	db, mock, cleanup := newCampaignRepoMock(t)
	defer cleanup()

	repo := NewCampaignRepository(db)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(campaignColumnsList()).
		AddRow(campaignRow("cmp-1", models.CampaignStatusScheduled, now.Add(-2*time.Hour))...).
		AddRow(campaignRow("cmp-2", models.CampaignStatusScheduled, now.Add(-time.Hour))...)
	mock.ExpectQuery("SELECT .+ FROM email_campaigns\\s+WHERE status = \\$1 AND scheduled_for <= \\$2\\s+ORDER BY scheduled_for ASC, id ASC").
		WithArgs(string(models.CampaignStatusScheduled), now).
		WillReturnRows(rows)

	due, err := repo.ListDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, due, 2)
	require.Equal(t, "cmp-1", due[0].ID)
	require.Equal(t, "cmp-2", due[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepositoryMarkSendingCAS(t *testing.T) {
	db, mock, cleanup := newCampaignRepoMock(t)
	defer cleanup()

	repo := NewCampaignRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE email_campaigns SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4")).
		WithArgs(string(models.CampaignStatusSending), sqlmock.AnyArg(), "cmp-1", string(models.CampaignStatusScheduled)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	won, err := repo.MarkSending(context.Background(), "cmp-1")
	require.NoError(t, err)
	require.True(t, won)

	// Second claim loses: the row is no longer in `scheduled`.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE email_campaigns SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4")).
		WithArgs(string(models.CampaignStatusSending), sqlmock.AnyArg(), "cmp-1", string(models.CampaignStatusScheduled)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err = repo.MarkSending(context.Background(), "cmp-1")
	require.NoError(t, err)
	require.False(t, won)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepositoryMarkSentRecordsProviderID(t *testing.T) {
	db, mock, cleanup := newCampaignRepoMock(t)
	defer cleanup()

	repo := NewCampaignRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE email_campaigns SET status = $1, provider_message_id = $2")).
		WithArgs(string(models.CampaignStatusSent), "prov-123", sqlmock.AnyArg(), "cmp-1", string(models.CampaignStatusSending)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	won, err := repo.MarkSent(context.Background(), "cmp-1", "prov-123")
	require.NoError(t, err)
	require.True(t, won)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepositoryMarkFailedRequiresSending(t *testing.T) {
	db, mock, cleanup := newCampaignRepoMock(t)
	defer cleanup()

	repo := NewCampaignRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE email_campaigns SET status = $1, failure_reason = $2")).
		WithArgs(string(models.CampaignStatusFailed), "transport timeout", sqlmock.AnyArg(), "cmp-1", string(models.CampaignStatusSending)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err := repo.MarkFailed(context.Background(), "cmp-1", "transport timeout")
	require.NoError(t, err)
	require.False(t, won)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepositoryListStaleSending(t *testing.T) {
	db, mock, cleanup := newCampaignRepoMock(t)
	defer cleanup()

	repo := NewCampaignRepository(db)
	cutoff := time.Date(2026, 3, 10, 8, 45, 0, 0, time.UTC)
	rows := sqlmock.NewRows(campaignColumnsList()).
		AddRow(campaignRow("cmp-9", models.CampaignStatusSending, cutoff.Add(-time.Hour))...)
	mock.ExpectQuery("SELECT .+ FROM email_campaigns\\s+WHERE status = \\$1 AND updated_at < \\$2").
		WithArgs(string(models.CampaignStatusSending), cutoff).
		WillReturnRows(rows)

	stale, err := repo.ListStaleSending(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	require.Equal(t, "cmp-9", stale[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
