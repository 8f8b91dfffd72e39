package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/apexlearn/campaign-api/internal/models"
	appErrors "github.com/apexlearn/campaign-api/pkg/errors"
	"github.com/apexlearn/campaign-api/pkg/mailer"
)

type campaignTransitioner interface {
	Due(ctx context.Context, now time.Time) ([]models.EmailCampaign, error)
	Get(ctx context.Context, id string) (*models.EmailCampaign, error)
	MarkSending(ctx context.Context, id string) (bool, error)
	MarkResult(ctx context.Context, id string, outcome models.SendOutcome) error
	StaleSending(ctx context.Context, cutoff time.Time) ([]models.EmailCampaign, error)
}

type outcomeMirror interface {
	MirrorOutcome(ctx context.Context, eventID string, outcome models.SendOutcome) error
}

type dispatchRecorder interface {
	CampaignSent()
	CampaignFailed()
	ObserveSweep(duration time.Duration, processed int)
}

// DispatcherConfig bounds transport latency and the sending-state TTL.
type DispatcherConfig struct {
	SendTimeout time.Duration
	SendingTTL  time.Duration
}

// DispatcherService pushes campaigns through the mail transport and records
// outcomes. It owns the sweep and the stuck-sending reconciler.
type DispatcherService struct {
	campaigns campaignTransitioner
	timeline  outcomeMirror
	transport mailer.Transport
	metrics   dispatchRecorder
	logger    *zap.Logger
	cfg       DispatcherConfig
}

// NewDispatcherService constructs the dispatcher.
func NewDispatcherService(campaigns campaignTransitioner, timeline outcomeMirror, transport mailer.Transport, metrics dispatchRecorder, logger *zap.Logger, cfg DispatcherConfig) *DispatcherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if cfg.SendingTTL <= 0 {
		cfg.SendingTTL = 15 * time.Minute
	}
	return &DispatcherService{
		campaigns: campaigns,
		timeline:  timeline,
		transport: transport,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Send pushes one campaign through the transport. Transport failures and
// timeouts become a Failed outcome rather than an error so the caller can
// always record a result; a campaign never stays in `sending` because the
// provider hung.
func (s *DispatcherService) Send(ctx context.Context, campaign *models.EmailCampaign) models.SendOutcome {
	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	defer cancel()

	providerID, err := s.transport.Send(sendCtx, campaign.RecipientEmail, campaign.EmailSubject, campaign.EmailContent)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(sendCtx.Err(), context.DeadlineExceeded) {
			return models.Failed("transport timeout")
		}
		return models.Failed(err.Error())
	}
	return models.Sent(providerID)
}

// SendImmediate composes markSending + send + markResult as one operation.
// Fails with NotFound for unknown ids and AlreadyProcessing when the
// campaign is not claimable.
func (s *DispatcherService) SendImmediate(ctx context.Context, campaignID string) (models.SendOutcome, error) {
	campaign, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return models.SendOutcome{}, err
	}

	won, err := s.campaigns.MarkSending(ctx, campaignID)
	if err != nil {
		return models.SendOutcome{}, err
	}
	if !won {
		return models.SendOutcome{}, appErrors.Clone(appErrors.ErrAlreadyProcessing, "campaign is already being processed")
	}

	outcome := s.dispatch(ctx, campaign)
	return outcome, nil
}

// ProcessScheduled is the sweep entry point: it claims and dispatches every
// due campaign, returning how many transitioned out of `scheduled` during
// this call. It is re-entrant; overlapping sweeps cannot double-send because
// each campaign is claimed by compare-and-set.
func (s *DispatcherService) ProcessScheduled(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()

	due, err := s.campaigns.Due(ctx, now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range due {
		campaign := due[i]
		won, err := s.campaigns.MarkSending(ctx, campaign.ID)
		if err != nil {
			s.logger.Error("sweep failed to claim campaign", zap.String("campaign_id", campaign.ID), zap.Error(err))
			continue
		}
		if !won {
			// Another sweep or a manual send already owns it.
			continue
		}
		processed++
		s.dispatch(ctx, &campaign)
	}

	if s.metrics != nil {
		s.metrics.ObserveSweep(time.Since(start), processed)
	}
	s.logger.Info("sweep finished", zap.Int("due", len(due)), zap.Int("processed", processed))
	return processed, nil
}

// ReconcileStuck fails campaigns that have sat in `sending` longer than the
// configured TTL, e.g. after a crash mid-dispatch. Returns how many were
// transitioned.
func (s *DispatcherService) ReconcileStuck(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.cfg.SendingTTL)
	stale, err := s.campaigns.StaleSending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	reconciled := 0
	for i := range stale {
		campaign := stale[i]
		outcome := models.Failed("sending exceeded TTL, reconciled")
		if err := s.campaigns.MarkResult(ctx, campaign.ID, outcome); err != nil {
			s.logger.Error("failed to reconcile stuck campaign", zap.String("campaign_id", campaign.ID), zap.Error(err))
			continue
		}
		reconciled++
		s.recordOutcome(ctx, &campaign, outcome)
	}

	if reconciled > 0 {
		s.logger.Warn("reconciled stuck campaigns", zap.Int("count", reconciled))
	}
	return reconciled, nil
}

// dispatch sends a claimed campaign and records the result.
func (s *DispatcherService) dispatch(ctx context.Context, campaign *models.EmailCampaign) models.SendOutcome {
	outcome := s.Send(ctx, campaign)
	if err := s.campaigns.MarkResult(ctx, campaign.ID, outcome); err != nil {
		s.logger.Error("failed to record campaign outcome",
			zap.String("campaign_id", campaign.ID),
			zap.String("outcome", string(outcome.Status)),
			zap.Error(err))
		return outcome
	}
	s.recordOutcome(ctx, campaign, outcome)
	return outcome
}

func (s *DispatcherService) recordOutcome(ctx context.Context, campaign *models.EmailCampaign, outcome models.SendOutcome) {
	if s.metrics != nil {
		if outcome.Status == models.OutcomeSent {
			s.metrics.CampaignSent()
		} else {
			s.metrics.CampaignFailed()
		}
	}
	if s.timeline != nil && campaign.TimelineEventID != nil {
		if err := s.timeline.MirrorOutcome(ctx, *campaign.TimelineEventID, outcome); err != nil {
			s.logger.Error("failed to mirror outcome to timeline event",
				zap.String("event_id", *campaign.TimelineEventID),
				zap.Error(err))
		}
	}
}
