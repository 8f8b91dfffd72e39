package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexlearn/campaign-api/internal/models"
)

// fakeSubmissionFinder keys results by lookup tier.
type fakeSubmissionFinder struct {
	byID    *models.SurveySubmission
	byExact *models.SurveySubmission
	byFold  *models.SurveySubmission
	byEmail *models.SurveySubmission
	err     error
}

func (f *fakeSubmissionFinder) find(s *models.SurveySubmission) (*models.SurveySubmission, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s == nil {
		return nil, sql.ErrNoRows
	}
	return s, nil
}

func (f *fakeSubmissionFinder) FindByLearnerID(context.Context, string) (*models.SurveySubmission, error) {
	return f.find(f.byID)
}

func (f *fakeSubmissionFinder) FindByNameExact(context.Context, string) (*models.SurveySubmission, error) {
	return f.find(f.byExact)
}

func (f *fakeSubmissionFinder) FindByNameFold(context.Context, string) (*models.SurveySubmission, error) {
	return f.find(f.byFold)
}

func (f *fakeSubmissionFinder) FindByEmbeddedEmail(context.Context, string) (*models.SurveySubmission, error) {
	return f.find(f.byEmail)
}

type fakeProgressFinder struct {
	progress *models.SurveyProgress
	err      error
}

func (f *fakeProgressFinder) FindByUserID(context.Context, string) (*models.SurveyProgress, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.progress == nil {
		return nil, sql.ErrNoRows
	}
	return f.progress, nil
}

type fakeFallbackReader struct {
	submissions []models.FallbackSubmission
	progress    []models.FallbackProgress
	err         error
}

func (f *fakeFallbackReader) ListSubmissions(context.Context) ([]models.FallbackSubmission, error) {
	return f.submissions, f.err
}

func (f *fakeFallbackReader) ListProgress(context.Context) ([]models.FallbackProgress, error) {
	return f.progress, f.err
}

func submission(id string) *models.SurveySubmission {
	return &models.SurveySubmission{ID: id, Status: "completed"}
}

func TestResolverPrefersLearnerIDOverOtherTiers(t *testing.T) {
	finder := &fakeSubmissionFinder{
		byID:    submission("by-id"),
		byExact: submission("by-name"),
		byEmail: submission("by-email"),
	}
	resolver := NewResolverService(finder, &fakeProgressFinder{}, &fakeFallbackReader{}, nil)

	found, source, err := resolver.ResolveSubmission(context.Background(), models.Learner{
		ID: "lrn-1", Name: "Ana", Email: "ana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "by-id", found.ID)
	assert.Equal(t, models.SourceAuthoritative, source)
}

func TestResolverFallsThroughTiersInOrder(t *testing.T) {
	finder := &fakeSubmissionFinder{byFold: submission("by-fold"), byEmail: submission("by-email")}
	resolver := NewResolverService(finder, &fakeProgressFinder{}, &fakeFallbackReader{}, nil)

	found, source, err := resolver.ResolveSubmission(context.Background(), models.Learner{
		ID: "lrn-1", Name: "ANA GARCIA", Email: "ana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "by-fold", found.ID)
	assert.Equal(t, models.SourceAuthoritative, source)
}

func TestResolverSkipsTiersForMissingAttributes(t *testing.T) {
	// Only the email tier should run when only an email is supplied.
	finder := &fakeSubmissionFinder{byEmail: submission("by-email")}
	resolver := NewResolverService(finder, &fakeProgressFinder{}, &fakeFallbackReader{}, nil)

	found, _, err := resolver.ResolveSubmission(context.Background(), models.Learner{Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "by-email", found.ID)
}

func TestResolverUsesFallbackWhenAuthoritativeMisses(t *testing.T) {
	fallback := &fakeFallbackReader{submissions: []models.FallbackSubmission{
		{ParticipantName: "Ana Garcia", ParticipantEmail: "ana@example.com", Status: "completed"},
	}}
	resolver := NewResolverService(&fakeSubmissionFinder{}, &fakeProgressFinder{}, fallback, nil)

	found, source, err := resolver.ResolveSubmission(context.Background(), models.Learner{Name: "ana garcia"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, models.SourceFallback, source)
	assert.Equal(t, "Ana Garcia", found.LearnerName)
	// Fallback records adapt to the canonical shape with the email embedded.
	assert.Equal(t, "ana@example.com", found.Responses.EmbeddedEmail())
}

func TestResolverFallbackMatchesEmbeddedEmail(t *testing.T) {
	fallback := &fakeFallbackReader{submissions: []models.FallbackSubmission{
		{ParticipantName: "Someone Else", Responses: models.JSONMap{
			"participantInfo": map[string]interface{}{"email": "ana@example.com"},
		}},
	}}
	resolver := NewResolverService(&fakeSubmissionFinder{}, &fakeProgressFinder{}, fallback, nil)

	found, source, err := resolver.ResolveSubmission(context.Background(), models.Learner{Email: "ANA@EXAMPLE.COM"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, models.SourceFallback, source)
}

func TestResolverNoMatchAnywhere(t *testing.T) {
	resolver := NewResolverService(&fakeSubmissionFinder{}, &fakeProgressFinder{}, &fakeFallbackReader{}, nil)

	found, source, err := resolver.ResolveSubmission(context.Background(), models.Learner{ID: "lrn-1", Name: "Ana"})
	require.NoError(t, err)
	assert.Nil(t, found)
	assert.Equal(t, models.SourceNone, source)
}

func TestResolverPropagatesStoreErrors(t *testing.T) {
	finder := &fakeSubmissionFinder{err: errors.New("connection refused")}
	resolver := NewResolverService(finder, &fakeProgressFinder{}, &fakeFallbackReader{}, nil)

	_, _, err := resolver.ResolveSubmission(context.Background(), models.Learner{ID: "lrn-1"})
	require.Error(t, err)
}

func TestResolverProgressAuthoritativeByID(t *testing.T) {
	progress := &fakeProgressFinder{progress: &models.SurveyProgress{ID: "prg-1", UserID: "lrn-1", CurrentSection: 2}}
	resolver := NewResolverService(&fakeSubmissionFinder{}, progress, &fakeFallbackReader{}, nil)

	found, source, err := resolver.ResolveProgress(context.Background(), models.Learner{ID: "lrn-1"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, models.SourceAuthoritative, source)
	assert.Equal(t, 2, found.CurrentSection)
}

func TestResolverProgressFallbackByName(t *testing.T) {
	fallback := &fakeFallbackReader{progress: []models.FallbackProgress{
		{ParticipantName: "Ana", CurrentSection: 1, CurrentQuestion: 4},
	}}
	resolver := NewResolverService(&fakeSubmissionFinder{}, &fakeProgressFinder{}, fallback, nil)

	found, source, err := resolver.ResolveProgress(context.Background(), models.Learner{Name: "Ana"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, models.SourceFallback, source)
	assert.Equal(t, 4, found.CurrentQuestion)
}
