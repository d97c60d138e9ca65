package domain

import "errors"

var (
	ErrPayoutNotFound       = errors.New("payout not found")
	ErrPayoutExists         = errors.New("payout already exists")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrProcessingInProgress = errors.New("payout is already being processed")
)
