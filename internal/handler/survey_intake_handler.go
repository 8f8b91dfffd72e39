package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apexlearn/campaign-api/internal/models"
	"github.com/apexlearn/campaign-api/internal/service"
	appErrors "github.com/apexlearn/campaign-api/pkg/errors"
	"github.com/apexlearn/campaign-api/pkg/response"
)

type surveyRecorder interface {
	RecordSubmission(ctx context.Context, req service.RecordSubmissionRequest) (*models.SurveySubmission, models.StatusSource, error)
	RecordProgress(ctx context.Context, req service.RecordProgressRequest) (*models.SurveyProgress, models.StatusSource, error)
}

// SurveyIntakeHandler accepts survey submission and progress writes.
type SurveyIntakeHandler struct {
	intake surveyRecorder
}

// NewSurveyIntakeHandler constructs a new SurveyIntakeHandler.
func NewSurveyIntakeHandler(intake surveyRecorder) *SurveyIntakeHandler {
	return &SurveyIntakeHandler{intake: intake}
}

// CreateSubmission godoc
// @Summary Record a completed survey
// @Description Writes to the authoritative store, degrading to the fallback tier when it is unavailable.
// @Tags Surveys
// @Accept json
// @Produce json
// @Param payload body service.RecordSubmissionRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /surveys/submissions [post]
func (h *SurveyIntakeHandler) CreateSubmission(c *gin.Context) {
	var req service.RecordSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload"))
		return
	}

	submission, source, err := h.intake.RecordSubmission(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, submission, nil, map[string]interface{}{"source": source})
}

// SaveProgress godoc
// @Summary Save in-flight survey answers
// @Description Upserts the learner's current position, degrading to the fallback tier when the store is unavailable.
// @Tags Surveys
// @Accept json
// @Produce json
// @Param payload body service.RecordProgressRequest true "Progress payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /surveys/progress [put]
func (h *SurveyIntakeHandler) SaveProgress(c *gin.Context) {
	var req service.RecordProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress payload"))
		return
	}

	progress, source, err := h.intake.RecordProgress(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil, map[string]interface{}{"source": source})
}
