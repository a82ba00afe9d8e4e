package usecase

import (
	"context"
	"errors"
	"time"

	brokerusecase "outreach-backend/internal/broker/usecase"
	"outreach-backend/internal/outreach/domain"
	"outreach-backend/internal/outreach/dto"
	"outreach-backend/pkg/lock"
	"outreach-backend/pkg/logger"

	"github.com/sirupsen/logrus"
)

const (
	runLockName = "outreach_run"
	runLockTTL  = 2 * time.Hour
)

func (u *outreachUsecase) EvaluateBroker(ctx context.Context, brokerID string, dryRun bool) (*domain.Evaluation, error) {
	broker, err := u.brokers.GetBroker(brokerID)
	if err != nil {
		return nil, err
	}
	if broker == nil {
		return nil, brokerusecase.ErrBrokerNotFound
	}
	return u.evaluate(ctx, broker, dryRun)
}

func (u *outreachUsecase) RunBatch(ctx context.Context, req dto.RunRequest) (*domain.BatchResult, error) {
	if u.locker != nil && !req.DryRun {
		release, err := u.locker.Acquire(ctx, runLockName, runLockTTL)
		if err != nil {
			if errors.Is(err, lock.ErrLocked) {
				return nil, ErrRunInProgress
			}
			return nil, err
		}
		defer release()
	}

	limit := req.Limit
	if limit <= 0 {
		limit = u.rules.Outreach.BatchLimit
	}

	// brokers still cooling down would only be suppressed again
	var contactedSince time.Time
	if cooldown := u.rules.Outreach.GetCooldown(); cooldown > 0 {
		contactedSince = u.now().Add(-cooldown)
	}

	brokers, err := u.brokers.ListForOutreach(limit, req.BrokerID, contactedSince)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result := &domain.BatchResult{Evaluations: make([]*domain.Evaluation, 0, len(brokers))}
	u.log.WithFields(logrus.Fields{
		"brokers": len(brokers),
		"dry_run": req.DryRun,
	}).Info("Outreach run started")

	for _, broker := range brokers {
		// stop between brokers, never inside one
		if err := ctx.Err(); err != nil {
			u.log.WithField("evaluated", result.Evaluated).Warn("Outreach run cancelled")
			return result, err
		}

		result.Evaluated++
		eval, err := u.evaluate(ctx, broker, req.DryRun)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Errors++
			logger.LogError("outreach_evaluate", err, map[string]interface{}{
				"broker_id": broker.ID,
			})
			result.Evaluations = append(result.Evaluations, &domain.Evaluation{
				BrokerID:   broker.ID,
				BrokerName: broker.Name,
				Verdict:    domain.VerdictError,
				Reason:     err.Error(),
				DryRun:     req.DryRun,
			})
			continue
		}

		switch eval.Verdict {
		case domain.VerdictSend:
			result.Sent++
		default:
			result.Skipped++
		}
		result.Evaluations = append(result.Evaluations, eval)
	}

	logger.LogEvent("outreach_run", map[string]interface{}{
		"evaluated":   result.Evaluated,
		"send":        result.Sent,
		"skip":        result.Skipped,
		"error":       result.Errors,
		"dry_run":     req.DryRun,
		"duration_ms": time.Since(started).Milliseconds(),
	})
	return result, nil
}
