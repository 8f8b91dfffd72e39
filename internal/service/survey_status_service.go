package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/apexlearn/campaign-api/internal/models"
	appErrors "github.com/apexlearn/campaign-api/pkg/errors"
)

type statusResolver interface {
	ResolveSubmission(ctx context.Context, learner models.Learner) (*models.SurveySubmission, models.StatusSource, error)
	ResolveProgress(ctx context.Context, learner models.Learner) (*models.SurveyProgress, models.StatusSource, error)
}

type statusCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// SurveyStatusReport is the resolved status plus the source tier it came
// from.
type SurveyStatusReport struct {
	Status models.SurveyStatus `json:"status"`
	Source models.StatusSource `json:"source"`
}

// SurveyStatusService answers "where is this learner in the survey" by
// resolving records and deriving a three-state status. Results are cached
// briefly; a stale answer self-corrects on the next cache expiry.
type SurveyStatusService struct {
	resolver statusResolver
	cache    statusCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewSurveyStatusService constructs the service.
func NewSurveyStatusService(resolver statusResolver, cache statusCache, cacheTTL time.Duration, logger *zap.Logger) *SurveyStatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	return &SurveyStatusService{
		resolver: resolver,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Status resolves and derives the learner's survey status. At least one
// identity attribute must be present.
func (s *SurveyStatusService) Status(ctx context.Context, learner models.Learner) (*SurveyStatusReport, error) {
	if learner.ID == "" && learner.Name == "" && learner.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one of learnerId, name, email is required")
	}

	key := statusCacheKey(learner)
	var cached SurveyStatusReport
	if s.cache != nil {
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("survey status cache read failed", zap.Error(err))
		}
	}

	report, err := s.derive(ctx, learner)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report, s.cacheTTL); err != nil {
			s.logger.Warn("survey status cache write failed", zap.Error(err))
		}
	}
	return report, nil
}

// derive applies the completion rule: a submission means completed, else
// progress means in_progress, else not_started.
func (s *SurveyStatusService) derive(ctx context.Context, learner models.Learner) (*SurveyStatusReport, error) {
	submission, source, err := s.resolver.ResolveSubmission(ctx, learner)
	if err != nil {
		return nil, err
	}
	if submission != nil {
		return &SurveyStatusReport{Status: models.SurveyStatusCompleted, Source: source}, nil
	}

	progress, source, err := s.resolver.ResolveProgress(ctx, learner)
	if err != nil {
		return nil, err
	}
	if progress != nil {
		return &SurveyStatusReport{Status: models.SurveyStatusInProgress, Source: source}, nil
	}

	return &SurveyStatusReport{Status: models.SurveyStatusNotStarted, Source: models.SourceNone}, nil
}

// DeriveStatus is the pure form of the completion rule.
func DeriveStatus(hasSubmission, hasProgress bool) models.SurveyStatus {
	switch {
	case hasSubmission:
		return models.SurveyStatusCompleted
	case hasProgress:
		return models.SurveyStatusInProgress
	default:
		return models.SurveyStatusNotStarted
	}
}

func statusCacheKey(learner models.Learner) string {
	return fmt.Sprintf("surveys:status:%s|%s|%s",
		learner.ID,
		strings.ToLower(strings.TrimSpace(learner.Name)),
		strings.ToLower(strings.TrimSpace(learner.Email)))
}
