package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/koyif/payouts/internal/domain"
)

// Result is the structured outcome returned to the task runtime. It is a
// value, not an error: the failure path propagates its error separately.
type Result struct {
	Success          bool          `json:"success"`
	AlreadyCompleted bool          `json:"already_completed,omitempty"`
	PayoutID         uuid.UUID     `json:"payout_id"`
	Status           domain.Status `json:"status,omitempty"`
	Message          string        `json:"message,omitempty"`
	Error            string        `json:"error,omitempty"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
}

func successResult(payout *domain.Payout) Result {
	completedAt := payout.UpdatedAt

	return Result{
		Success:     true,
		PayoutID:    payout.ID,
		Status:      domain.StatusCompleted,
		Message:     "payout processed successfully",
		CompletedAt: &completedAt,
	}
}

func alreadyCompletedResult(payout *domain.Payout) Result {
	return Result{
		Success:          true,
		AlreadyCompleted: true,
		PayoutID:         payout.ID,
		Status:           domain.StatusCompleted,
		Message:          "payout was already processed",
	}
}

func notFoundResult(id uuid.UUID) Result {
	return Result{
		PayoutID: id,
		Error:    "payout not found",
	}
}
