package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Payout struct {
	ID               uuid.UUID
	Amount           decimal.Decimal
	Currency         Currency
	RecipientDetails json.RawMessage
	Status           Status
	Description      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CanBeProcessed is the admission check used by the processing pipeline:
// only pending and failed payouts may enter processing.
func (p *Payout) CanBeProcessed() bool {
	return p.Status == StatusPending || p.Status == StatusFailed
}

func (p *Payout) IsPending() bool {
	return p.Status == StatusPending
}

func (p *Payout) IsProcessing() bool {
	return p.Status == StatusProcessing
}

func (p *Payout) IsCompleted() bool {
	return p.Status == StatusCompleted
}

func (p *Payout) IsFailed() bool {
	return p.Status == StatusFailed
}

func (p *Payout) IsCancelled() bool {
	return p.Status == StatusCancelled
}
