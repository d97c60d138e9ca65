package service

import (
	"context"
	"time"

	"github.com/koyif/payouts/internal/domain"
)

// SettlementGateway executes one settlement stage for a payout. The simulated
// implementation below stands in for real payment-network calls.
type SettlementGateway interface {
	Run(ctx context.Context, payout *domain.Payout, stage string) error
}

type simulatedGateway struct {
	stageDelay time.Duration
}

func NewSimulatedGateway(stageDelay time.Duration) SettlementGateway {
	return simulatedGateway{stageDelay: stageDelay}
}

func (g simulatedGateway) Run(ctx context.Context, _ *domain.Payout, _ string) error {
	if g.stageDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(g.stageDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
