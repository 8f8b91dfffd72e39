package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexlearn/campaign-api/internal/models"
	appErrors "github.com/apexlearn/campaign-api/pkg/errors"
)

type fakeSubmissionWriter struct {
	err     error
	created []*models.SurveySubmission
}

func (f *fakeSubmissionWriter) Create(_ context.Context, submission *models.SurveySubmission) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, submission)
	return nil
}

type fakeProgressWriter struct {
	err      error
	upserted []*models.SurveyProgress
}

func (f *fakeProgressWriter) Upsert(_ context.Context, progress *models.SurveyProgress) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, progress)
	return nil
}

type fakeFallbackWriter struct {
	err         error
	submissions []models.FallbackSubmission
	progress    []models.FallbackProgress
}

func (f *fakeFallbackWriter) SaveSubmission(_ context.Context, record models.FallbackSubmission) error {
	if f.err != nil {
		return f.err
	}
	f.submissions = append(f.submissions, record)
	return nil
}

func (f *fakeFallbackWriter) SaveProgress(_ context.Context, record models.FallbackProgress) error {
	if f.err != nil {
		return f.err
	}
	f.progress = append(f.progress, record)
	return nil
}

func TestRecordSubmissionPrefersAuthoritativeStore(t *testing.T) {
	writer := &fakeSubmissionWriter{}
	fallback := &fakeFallbackWriter{}
	svc := NewSurveyIntakeService(writer, &fakeProgressWriter{}, fallback, nil, nil)

	submission, source, err := svc.RecordSubmission(context.Background(), RecordSubmissionRequest{
		LearnerID:   "learner-1",
		LearnerName: "Ana Gomez",
		Responses:   models.JSONMap{"q1": "yes"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.SourceAuthoritative, source)
	require.NotNil(t, submission.LearnerID)
	assert.Equal(t, "learner-1", *submission.LearnerID)
	assert.Equal(t, "submitted", submission.Status)
	require.Len(t, writer.created, 1)
	assert.Empty(t, fallback.submissions)
}

func TestRecordSubmissionDegradesToFallback(t *testing.T) {
	writer := &fakeSubmissionWriter{err: errors.New("connection refused")}
	fallback := &fakeFallbackWriter{}
	svc := NewSurveyIntakeService(writer, &fakeProgressWriter{}, fallback, nil, nil)

	submission, source, err := svc.RecordSubmission(context.Background(), RecordSubmissionRequest{
		LearnerName: "Ana Gomez",
		Responses:   models.JSONMap{"participantInfo": map[string]interface{}{"email": "ana@example.com"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.SourceFallback, source)
	assert.Equal(t, "Ana Gomez", submission.LearnerName)
	require.Len(t, fallback.submissions, 1)
	assert.Equal(t, "ana@example.com", fallback.submissions[0].ParticipantEmail)
	assert.Empty(t, writer.created)
}

func TestRecordSubmissionFailsWhenBothTiersReject(t *testing.T) {
	writer := &fakeSubmissionWriter{err: errors.New("connection refused")}
	fallback := &fakeFallbackWriter{err: errors.New("redis down")}
	svc := NewSurveyIntakeService(writer, &fakeProgressWriter{}, fallback, nil, nil)

	_, source, err := svc.RecordSubmission(context.Background(), RecordSubmissionRequest{LearnerName: "Ana Gomez"})
	require.Error(t, err)
	assert.Equal(t, models.SourceNone, source)
	assert.Equal(t, appErrors.ErrStore.Code, appErrors.FromError(err).Code)
}

func TestRecordSubmissionValidatesName(t *testing.T) {
	svc := NewSurveyIntakeService(&fakeSubmissionWriter{}, &fakeProgressWriter{}, &fakeFallbackWriter{}, nil, nil)

	_, _, err := svc.RecordSubmission(context.Background(), RecordSubmissionRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRecordProgressUpsertsAuthoritatively(t *testing.T) {
	progress := &fakeProgressWriter{}
	svc := NewSurveyIntakeService(&fakeSubmissionWriter{}, progress, &fakeFallbackWriter{}, nil, nil)

	saved, source, err := svc.RecordProgress(context.Background(), RecordProgressRequest{
		UserID:          "user-1",
		CurrentSection:  2,
		CurrentQuestion: 5,
		Answers:         models.JSONMap{"q1": "yes"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.SourceAuthoritative, source)
	assert.Equal(t, "user-1", saved.UserID)
	require.Len(t, progress.upserted, 1)
}

func TestRecordProgressDegradesToFallback(t *testing.T) {
	progress := &fakeProgressWriter{err: errors.New("connection refused")}
	fallback := &fakeFallbackWriter{}
	svc := NewSurveyIntakeService(&fakeSubmissionWriter{}, progress, fallback, nil, nil)

	saved, source, err := svc.RecordProgress(context.Background(), RecordProgressRequest{
		UserID:          "user-1",
		ParticipantInfo: models.JSONMap{"name": "Ana Gomez", "email": "ana@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.SourceFallback, source)
	require.Len(t, fallback.progress, 1)
	assert.Equal(t, "ana@example.com", fallback.progress[0].ParticipantEmail)
	assert.Equal(t, "ana@example.com", saved.ParticipantInfo["email"])
}
