package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/apexlearn/campaign-api/internal/models"
)

const (
	fallbackSubmissionsKey = "surveys:fallback:submissions"
	fallbackProgressKey    = "surveys:fallback:progress"
)

// FallbackStore is the degraded-mode survey store: records land here when the
// authoritative write failed, loosely keyed by participant name/email because
// no stable id exists at that point. It is consulted only after the
// authoritative tier yields no match.
type FallbackStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewFallbackStore constructs the store.
func NewFallbackStore(client *redis.Client, logger *zap.Logger) *FallbackStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackStore{client: client, logger: logger}
}

// looseKey builds the hash field for a participant. Email wins over name as
// it is more likely to be unique.
func looseKey(name, email string) string {
	if email != "" {
		return "email:" + strings.ToLower(strings.TrimSpace(email))
	}
	return "name:" + strings.ToLower(strings.TrimSpace(name))
}

// SaveSubmission records a submission in the fallback tier.
func (s *FallbackStore) SaveSubmission(ctx context.Context, record models.FallbackSubmission) error {
	if s.client == nil {
		return nil
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal fallback submission: %w", err)
	}
	field := looseKey(record.ParticipantName, record.ParticipantEmail)
	if err := s.client.HSet(ctx, fallbackSubmissionsKey, field, payload).Err(); err != nil {
		return fmt.Errorf("save fallback submission: %w", err)
	}
	s.logger.Warn("survey submission written to fallback store",
		zap.String("participant", record.ParticipantName))
	return nil
}

// ListSubmissions returns every fallback submission. The set is small by
// construction (authoritative writes rarely fail), so the resolver scans it.
func (s *FallbackStore) ListSubmissions(ctx context.Context) ([]models.FallbackSubmission, error) {
	if s.client == nil {
		return nil, nil
	}
	raw, err := s.client.HGetAll(ctx, fallbackSubmissionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list fallback submissions: %w", err)
	}
	records := make([]models.FallbackSubmission, 0, len(raw))
	for field, value := range raw {
		var record models.FallbackSubmission
		if err := json.Unmarshal([]byte(value), &record); err != nil {
			s.logger.Warn("skipping malformed fallback submission", zap.String("field", field), zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// SaveProgress records in-flight answers in the fallback tier.
func (s *FallbackStore) SaveProgress(ctx context.Context, record models.FallbackProgress) error {
	if s.client == nil {
		return nil
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal fallback progress: %w", err)
	}
	field := looseKey(record.ParticipantName, record.ParticipantEmail)
	if err := s.client.HSet(ctx, fallbackProgressKey, field, payload).Err(); err != nil {
		return fmt.Errorf("save fallback progress: %w", err)
	}
	return nil
}

// ListProgress returns every fallback progress record.
func (s *FallbackStore) ListProgress(ctx context.Context) ([]models.FallbackProgress, error) {
	if s.client == nil {
		return nil, nil
	}
	raw, err := s.client.HGetAll(ctx, fallbackProgressKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list fallback progress: %w", err)
	}
	records := make([]models.FallbackProgress, 0, len(raw))
	for field, value := range raw {
		var record models.FallbackProgress
		if err := json.Unmarshal([]byte(value), &record); err != nil {
			s.logger.Warn("skipping malformed fallback progress", zap.String("field", field), zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
