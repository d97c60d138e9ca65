package dto

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/theplant/luhn"

	"github.com/koyif/payouts/internal/domain"
)

var (
	cardNumberPattern = regexp.MustCompile(`^[0-9]{13,19}$`)
	cardHolderPattern = regexp.MustCompile(`^[A-ZА-ЯЁ][a-zа-яё]+(-[A-ZА-ЯЁ][a-zа-яё]+)? [A-ZА-ЯЁ][a-zа-яё]+(-[A-ZА-ЯЁ][a-zа-яё]+)?$`)
	expiryDatePattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/([0-9]{2})$`)
)

var (
	ErrInvalidAmount     = errors.New("amount must be greater than 0 with at most 2 decimal places")
	ErrInvalidCurrency   = errors.New("currency must be one of RUB, USD, EUR")
	ErrInvalidCardNumber = errors.New("invalid card number")
	ErrInvalidCardHolder = errors.New("invalid card holder name")
	ErrInvalidExpiryDate = errors.New("expiry date must be in MM/YY format")
	ErrInvalidStatus     = errors.New("invalid status")
)

type Card struct {
	CardNumber string `json:"card_number"`
	CardHolder string `json:"card_holder"`
	ExpiryDate string `json:"expiry_date"`
}

func (c Card) IsValid() error {
	if !cardNumberPattern.MatchString(c.CardNumber) {
		return ErrInvalidCardNumber
	}

	number, err := strconv.ParseInt(c.CardNumber, 10, 64)
	if err != nil || !luhn.Valid(int(number)) {
		return ErrInvalidCardNumber
	}

	if !cardHolderPattern.MatchString(c.CardHolder) {
		return ErrInvalidCardHolder
	}

	if !expiryDatePattern.MatchString(c.ExpiryDate) {
		return ErrInvalidExpiryDate
	}

	return nil
}

type PayoutCreateRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Description      string          `json:"description,omitempty"`
	RecipientDetails Card            `json:"recipient_details"`
}

func (r PayoutCreateRequest) IsValid() error {
	if !r.Amount.IsPositive() || r.Amount.Exponent() < -2 {
		return ErrInvalidAmount
	}

	// NUMERIC(12,2): at most 10 integral digits
	if r.Amount.GreaterThanOrEqual(decimal.New(1, 10)) {
		return ErrInvalidAmount
	}

	if !domain.Currency(r.Currency).Valid() {
		return ErrInvalidCurrency
	}

	return r.RecipientDetails.IsValid()
}

type PayoutUpdateRequest struct {
	Status      *string `json:"status,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (r PayoutUpdateRequest) IsValid() error {
	if r.Status != nil && !domain.Status(*r.Status).Valid() {
		return ErrInvalidStatus
	}

	return nil
}

type PayoutResponse struct {
	ID               string          `json:"id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	RecipientDetails json.RawMessage `json:"recipient_details"`
	Status           string          `json:"status"`
	Description      string          `json:"description,omitempty"`
	CreatedAt        string          `json:"created_at"`
	UpdatedAt        string          `json:"updated_at"`
}

func NewPayoutResponse(payout *domain.Payout) PayoutResponse {
	return PayoutResponse{
		ID:               payout.ID.String(),
		Amount:           payout.Amount,
		Currency:         string(payout.Currency),
		RecipientDetails: payout.RecipientDetails,
		Status:           string(payout.Status),
		Description:      payout.Description,
		CreatedAt:        payout.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        payout.UpdatedAt.Format(time.RFC3339),
	}
}

type PayoutListResponse struct {
	Items []PayoutResponse `json:"items"`
	Count int64            `json:"count"`
}
