package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/koyif/payouts/internal/domain"
	"github.com/koyif/payouts/pkg/logger"
)

// ProgressFunc receives one event per observable pipeline step. A nil sink is
// legal, the pipeline then runs silently.
type ProgressFunc func(stage string, current, total int)

type processorRepository interface {
	Payout(ctx context.Context, id uuid.UUID) (*domain.Payout, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) (*domain.Payout, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) (*domain.Payout, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

var settlementStages = []string{
	"data validation",
	"balance verification",
	"funds reservation",
	"transaction preparation",
	"submission",
}

// Processor drives one payout through the settlement pipeline. Safe to call
// repeatedly for the same payout: completed payouts short-circuit, and the
// conditional processing transition rejects concurrent duplicate runs.
type Processor struct {
	repo    processorRepository
	gateway SettlementGateway
}

func NewProcessor(repo processorRepository, gateway SettlementGateway) *Processor {
	return &Processor{
		repo:    repo,
		gateway: gateway,
	}
}

func (p *Processor) Process(ctx context.Context, id uuid.UUID, progress ProgressFunc) (Result, error) {
	total := len(settlementStages) + 3
	report := func(stage string, current int) {
		if progress != nil {
			progress(stage, current, total)
		}
	}

	logger.Log.Info("starting payout processing", logger.String("payout_id", id.String()))
	report("fetch", 1)

	payout, err := p.repo.Payout(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPayoutNotFound) {
			logger.Log.Error("payout not found", logger.String("payout_id", id.String()))
			return notFoundResult(id), nil
		}
		return Result{}, p.fail(ctx, id, err)
	}

	report("admission", 2)
	if payout.IsCompleted() {
		logger.Log.Info("payout already completed", logger.String("payout_id", id.String()))
		return alreadyCompletedResult(payout), nil
	}

	payout, err = p.repo.MarkProcessing(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return p.classifyRejection(ctx, id, err)
		}
		return Result{}, p.fail(ctx, id, err)
	}

	logger.Log.Info("payout moved to processing", logger.String("payout_id", id.String()))
	report("processing", 3)

	for i, stage := range settlementStages {
		logger.Log.Info(
			"running settlement stage",
			logger.String("payout_id", id.String()),
			logger.String("stage", stage),
		)

		if err := p.gateway.Run(ctx, payout, stage); err != nil {
			return Result{}, p.fail(ctx, id, fmt.Errorf("settlement stage %q: %w", stage, err))
		}

		report(stage, 4+i)
	}

	payout, err = p.repo.MarkCompleted(ctx, id)
	if err != nil {
		return Result{}, p.fail(ctx, id, err)
	}

	report("completion", total)
	logger.Log.Info("payout processed", logger.String("payout_id", id.String()))

	return successResult(payout), nil
}

// classifyRejection resolves a rejected processing transition: the payout may
// have been completed or grabbed by a concurrent run between the admission
// check and the conditional update.
func (p *Processor) classifyRejection(ctx context.Context, id uuid.UUID, cause error) (Result, error) {
	payout, err := p.repo.Payout(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPayoutNotFound) {
			return notFoundResult(id), nil
		}
		return Result{}, p.fail(ctx, id, err)
	}

	switch {
	case payout.IsCompleted():
		logger.Log.Info("payout already completed", logger.String("payout_id", id.String()))
		return alreadyCompletedResult(payout), nil
	case payout.IsProcessing():
		logger.Log.Info("payout is being processed by another run", logger.String("payout_id", id.String()))
		return Result{}, domain.ErrProcessingInProgress
	default:
		return Result{}, p.fail(ctx, id, fmt.Errorf("payout in status %q: %w", payout.Status, cause))
	}
}

// fail makes a best-effort attempt to mark the payout failed before returning
// the original error. A secondary update failure is logged and swallowed.
func (p *Processor) fail(ctx context.Context, id uuid.UUID, cause error) error {
	logger.Log.Error("payout processing failed", logger.String("payout_id", id.String()), logger.Error(cause))

	if err := p.repo.MarkFailed(ctx, id, cause.Error()); err != nil {
		logger.Log.Error(
			"error marking payout failed",
			logger.String("payout_id", id.String()),
			logger.Error(err),
		)
	}

	return cause
}
