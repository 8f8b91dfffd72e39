package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/apexlearn/campaign-api/internal/models"
)

type submissionFinder interface {
	FindByLearnerID(ctx context.Context, learnerID string) (*models.SurveySubmission, error)
	FindByNameExact(ctx context.Context, name string) (*models.SurveySubmission, error)
	FindByNameFold(ctx context.Context, name string) (*models.SurveySubmission, error)
	FindByEmbeddedEmail(ctx context.Context, email string) (*models.SurveySubmission, error)
}

type progressFinder interface {
	FindByUserID(ctx context.Context, userID string) (*models.SurveyProgress, error)
}

type fallbackReader interface {
	ListSubmissions(ctx context.Context) ([]models.FallbackSubmission, error)
	ListProgress(ctx context.Context) ([]models.FallbackProgress, error)
}

// ResolverService reconciles a learner's survey records across two ranked
// sources: the authoritative store first, the degraded-mode fallback cache
// second. Within each source, identity matching runs in a fixed precedence:
// learner id, exact name, case-insensitive name, embedded email. The first
// hit wins and sources are never merged.
type ResolverService struct {
	submissions submissionFinder
	progress    progressFinder
	fallback    fallbackReader
	logger      *zap.Logger
}

// NewResolverService constructs the resolver.
func NewResolverService(submissions submissionFinder, progress progressFinder, fallback fallbackReader, logger *zap.Logger) *ResolverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResolverService{
		submissions: submissions,
		progress:    progress,
		fallback:    fallback,
		logger:      logger,
	}
}

// submissionLookup is one precedence tier against the authoritative store.
type submissionLookup func(ctx context.Context) (*models.SurveySubmission, error)

// ResolveSubmission finds the learner's completed submission, if any. A miss
// in every tier of both sources returns (nil, SourceNone, nil); store errors
// propagate.
func (s *ResolverService) ResolveSubmission(ctx context.Context, learner models.Learner) (*models.SurveySubmission, models.StatusSource, error) {
	lookups := s.submissionLookups(learner)
	for _, lookup := range lookups {
		submission, err := lookup(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, models.SourceNone, err
		}
		return submission, models.SourceAuthoritative, nil
	}

	submission, err := s.fallbackSubmission(ctx, learner)
	if err != nil {
		return nil, models.SourceNone, err
	}
	if submission != nil {
		return submission, models.SourceFallback, nil
	}
	return nil, models.SourceNone, nil
}

// ResolveProgress finds the learner's in-flight progress. The authoritative
// store keys progress by the stable learner id; the fallback cache is matched
// by name and email like submissions.
func (s *ResolverService) ResolveProgress(ctx context.Context, learner models.Learner) (*models.SurveyProgress, models.StatusSource, error) {
	if learner.ID != "" {
		progress, err := s.progress.FindByUserID(ctx, learner.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, models.SourceNone, err
		}
		if progress != nil {
			return progress, models.SourceAuthoritative, nil
		}
	}

	progress, err := s.fallbackProgress(ctx, learner)
	if err != nil {
		return nil, models.SourceNone, err
	}
	if progress != nil {
		return progress, models.SourceFallback, nil
	}
	return nil, models.SourceNone, nil
}

// submissionLookups builds the precedence-ordered tiers that apply to the
// identity attributes actually present on the learner.
func (s *ResolverService) submissionLookups(learner models.Learner) []submissionLookup {
	var lookups []submissionLookup
	if learner.ID != "" {
		lookups = append(lookups, func(ctx context.Context) (*models.SurveySubmission, error) {
			return s.submissions.FindByLearnerID(ctx, learner.ID)
		})
	}
	if learner.Name != "" {
		lookups = append(lookups,
			func(ctx context.Context) (*models.SurveySubmission, error) {
				return s.submissions.FindByNameExact(ctx, learner.Name)
			},
			func(ctx context.Context) (*models.SurveySubmission, error) {
				return s.submissions.FindByNameFold(ctx, learner.Name)
			},
		)
	}
	if learner.Email != "" {
		lookups = append(lookups, func(ctx context.Context) (*models.SurveySubmission, error) {
			return s.submissions.FindByEmbeddedEmail(ctx, learner.Email)
		})
	}
	return lookups
}

func (s *ResolverService) fallbackSubmission(ctx context.Context, learner models.Learner) (*models.SurveySubmission, error) {
	records, err := s.fallback.ListSubmissions(ctx)
	if err != nil {
		return nil, err
	}
	for tier := 0; tier < 3; tier++ {
		for i := range records {
			record := records[i]
			if matchesTier(tier, learner, record.ParticipantName, record.ParticipantEmail, record.Responses) {
				return record.Canonical(), nil
			}
		}
	}
	return nil, nil
}

func (s *ResolverService) fallbackProgress(ctx context.Context, learner models.Learner) (*models.SurveyProgress, error) {
	records, err := s.fallback.ListProgress(ctx)
	if err != nil {
		return nil, err
	}
	for tier := 0; tier < 3; tier++ {
		for i := range records {
			record := records[i]
			if matchesTier(tier, learner, record.ParticipantName, record.ParticipantEmail, nil) {
				return record.Canonical(), nil
			}
		}
	}
	return nil, nil
}

// matchesTier applies one precedence tier to a fallback record. Fallback
// records carry no learner id, so tiers start at exact name.
func matchesTier(tier int, learner models.Learner, name, email string, responses models.JSONMap) bool {
	switch tier {
	case 0:
		return learner.Name != "" && name == learner.Name
	case 1:
		return learner.Name != "" && strings.EqualFold(name, learner.Name)
	case 2:
		if learner.Email == "" {
			return false
		}
		if strings.EqualFold(email, learner.Email) {
			return true
		}
		return responses != nil && strings.EqualFold(responses.EmbeddedEmail(), learner.Email)
	default:
		return false
	}
}
