package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/koyif/payouts/internal/domain"
	"github.com/koyif/payouts/pkg/logger"
)

type PayoutRepository interface {
	CreatePayout(ctx context.Context, payout *domain.Payout) error
	Payout(ctx context.Context, id uuid.UUID) (*domain.Payout, error)
	Payouts(ctx context.Context, limit, offset int) ([]domain.Payout, error)
	PayoutCount(ctx context.Context) (int64, error)
	UpdatePayout(ctx context.Context, id uuid.UUID, status *domain.Status, description *string) (*domain.Payout, error)
	DeletePayout(ctx context.Context, id uuid.UUID) error
}

type payoutScheduler interface {
	Schedule(payoutID uuid.UUID, delay time.Duration) *TaskHandle
}

type CreatePayoutParams struct {
	Amount           decimal.Decimal
	Currency         domain.Currency
	RecipientDetails json.RawMessage
	Description      string
}

// PayoutService combines payout CRUD with task scheduling. Composition over
// the repository and the dispatcher keeps both capabilities injectable.
type PayoutService struct {
	repo          PayoutRepository
	scheduler     payoutScheduler
	scheduleDelay time.Duration
}

func NewPayoutService(repo PayoutRepository, scheduler payoutScheduler, scheduleDelay time.Duration) *PayoutService {
	return &PayoutService{
		repo:          repo,
		scheduler:     scheduler,
		scheduleDelay: scheduleDelay,
	}
}

// Create stores a new pending payout and schedules its processing. Scheduling
// happens strictly after the insert has committed: a rolled-back creation is
// never observed by the pipeline.
func (s *PayoutService) Create(ctx context.Context, params CreatePayoutParams) (*domain.Payout, error) {
	payout := &domain.Payout{
		ID:               uuid.New(),
		Amount:           params.Amount,
		Currency:         params.Currency,
		RecipientDetails: params.RecipientDetails,
		Status:           domain.StatusPending,
		Description:      params.Description,
	}

	if err := s.repo.CreatePayout(ctx, payout); err != nil {
		return nil, err
	}

	s.scheduler.Schedule(payout.ID, s.scheduleDelay)
	logger.Log.Info("payout created", logger.String("payout_id", payout.ID.String()))

	return payout, nil
}

func (s *PayoutService) Payout(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	return s.repo.Payout(ctx, id)
}

func (s *PayoutService) Payouts(ctx context.Context, page, pageSize int) ([]domain.Payout, int64, error) {
	count, err := s.repo.PayoutCount(ctx)
	if err != nil {
		return nil, 0, err
	}

	payouts, err := s.repo.Payouts(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}

	return payouts, count, nil
}

func (s *PayoutService) Update(ctx context.Context, id uuid.UUID, status *domain.Status, description *string) (*domain.Payout, error) {
	return s.repo.UpdatePayout(ctx, id, status, description)
}

func (s *PayoutService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeletePayout(ctx, id)
}
