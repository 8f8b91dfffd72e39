package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexlearn/campaign-api/internal/models"
	appErrors "github.com/apexlearn/campaign-api/pkg/errors"
)

type fakeStatusResolver struct {
	submission *models.SurveySubmission
	subSource  models.StatusSource
	progress   *models.SurveyProgress
	prgSource  models.StatusSource
	calls      int
}

func (f *fakeStatusResolver) ResolveSubmission(context.Context, models.Learner) (*models.SurveySubmission, models.StatusSource, error) {
	f.calls++
	return f.submission, f.subSource, nil
}

func (f *fakeStatusResolver) ResolveProgress(context.Context, models.Learner) (*models.SurveyProgress, models.StatusSource, error) {
	return f.progress, f.prgSource, nil
}

// fakeStatusCache stores marshalled values like the Redis-backed cache does.
type fakeStatusCache struct {
	entries map[string][]byte
}

func newFakeStatusCache() *fakeStatusCache {
	return &fakeStatusCache{entries: map[string][]byte{}}
}

func (f *fakeStatusCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeStatusCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	return nil
}

func TestSurveyStatusCompletedWinsOverProgress(t *testing.T) {
	resolver := &fakeStatusResolver{
		submission: &models.SurveySubmission{ID: "sub-1"},
		subSource:  models.SourceAuthoritative,
		progress:   &models.SurveyProgress{ID: "prg-1"},
		prgSource:  models.SourceFallback,
	}
	svc := NewSurveyStatusService(resolver, nil, time.Minute, nil)

	report, err := svc.Status(context.Background(), models.Learner{ID: "lrn-1"})
	require.NoError(t, err)
	assert.Equal(t, models.SurveyStatusCompleted, report.Status)
	assert.Equal(t, models.SourceAuthoritative, report.Source)
}

func TestSurveyStatusInProgress(t *testing.T) {
	resolver := &fakeStatusResolver{
		progress:  &models.SurveyProgress{ID: "prg-1"},
		prgSource: models.SourceFallback,
	}
	svc := NewSurveyStatusService(resolver, nil, time.Minute, nil)

	report, err := svc.Status(context.Background(), models.Learner{Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, models.SurveyStatusInProgress, report.Status)
	assert.Equal(t, models.SourceFallback, report.Source)
}

func TestSurveyStatusNotStarted(t *testing.T) {
	svc := NewSurveyStatusService(&fakeStatusResolver{}, nil, time.Minute, nil)

	report, err := svc.Status(context.Background(), models.Learner{Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.SurveyStatusNotStarted, report.Status)
	assert.Equal(t, models.SourceNone, report.Source)
}

func TestSurveyStatusRequiresAnIdentityAttribute(t *testing.T) {
	svc := NewSurveyStatusService(&fakeStatusResolver{}, nil, time.Minute, nil)

	_, err := svc.Status(context.Background(), models.Learner{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSurveyStatusCachesResolvedResults(t *testing.T) {
	resolver := &fakeStatusResolver{
		submission: &models.SurveySubmission{ID: "sub-1"},
		subSource:  models.SourceAuthoritative,
	}
	cache := newFakeStatusCache()
	svc := NewSurveyStatusService(resolver, cache, time.Minute, nil)

	learner := models.Learner{ID: "lrn-1", Name: "Ana"}
	first, err := svc.Status(context.Background(), learner)
	require.NoError(t, err)

	second, err := svc.Status(context.Background(), learner)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, resolver.calls)
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, models.SurveyStatusCompleted, DeriveStatus(true, true))
	assert.Equal(t, models.SurveyStatusCompleted, DeriveStatus(true, false))
	assert.Equal(t, models.SurveyStatusInProgress, DeriveStatus(false, true))
	assert.Equal(t, models.SurveyStatusNotStarted, DeriveStatus(false, false))
}
