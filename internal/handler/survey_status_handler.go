package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/apexlearn/campaign-api/internal/models"
	"github.com/apexlearn/campaign-api/internal/service"
	"github.com/apexlearn/campaign-api/pkg/response"
)

type statusProvider interface {
	Status(ctx context.Context, learner models.Learner) (*service.SurveyStatusReport, error)
}

// SurveyStatusHandler exposes survey completion status lookups.
type SurveyStatusHandler struct {
	statuses statusProvider
}

// NewSurveyStatusHandler constructs a new SurveyStatusHandler.
func NewSurveyStatusHandler(statuses statusProvider) *SurveyStatusHandler {
	return &SurveyStatusHandler{statuses: statuses}
}

// Get godoc
// @Summary Resolve a learner's survey status
// @Description Matches the learner across the authoritative store and the fallback cache, in precedence order.
// @Tags Surveys
// @Produce json
// @Param learnerId query string false "Stable learner identifier"
// @Param name query string false "Learner display name"
// @Param email query string false "Learner email"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /survey-status [get]
func (h *SurveyStatusHandler) Get(c *gin.Context) {
	learner := models.Learner{
		ID:    strings.TrimSpace(c.Query("learnerId")),
		Name:  strings.TrimSpace(c.Query("name")),
		Email: strings.TrimSpace(c.Query("email")),
	}

	report, err := h.statuses.Status(c.Request.Context(), learner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
