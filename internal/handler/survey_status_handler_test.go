package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexlearn/campaign-api/internal/models"
	"github.com/apexlearn/campaign-api/internal/service"
	appErrors "github.com/apexlearn/campaign-api/pkg/errors"
)

type fakeStatusProvider struct {
	report      *service.SurveyStatusReport
	err         error
	lastLearner models.Learner
}

func (f *fakeStatusProvider) Status(_ context.Context, learner models.Learner) (*service.SurveyStatusReport, error) {
	f.lastLearner = learner
	return f.report, f.err
}

func TestSurveyStatusHandlerPassesQueryAttributes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	provider := &fakeStatusProvider{report: &service.SurveyStatusReport{
		Status: models.SurveyStatusCompleted,
		Source: models.SourceAuthoritative,
	}}
	handler := NewSurveyStatusHandler(provider)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/survey-status?learnerId=lrn-1&name=Ana%20Garcia&email=ana%40example.com", nil)

	handler.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "lrn-1", provider.lastLearner.ID)
	assert.Equal(t, "Ana Garcia", provider.lastLearner.Name)
	assert.Equal(t, "ana@example.com", provider.lastLearner.Email)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "completed", envelope.Data["status"])
	assert.Equal(t, "authoritative", envelope.Data["source"])
}

func TestSurveyStatusHandlerValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	provider := &fakeStatusProvider{err: appErrors.Clone(appErrors.ErrValidation, "at least one of learnerId, name, email is required")}
	handler := NewSurveyStatusHandler(provider)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/survey-status", nil)

	handler.Get(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
