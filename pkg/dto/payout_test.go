package dto

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func validCard() Card {
	return Card{
		CardNumber: "5555555555554444",
		CardHolder: "Ivanov Ivan",
		ExpiryDate: "12/25",
	}
}

func TestCardIsValid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Card)
		wantErr error
	}{
		{"valid card", func(*Card) {}, nil},
		{"too short number", func(c *Card) { c.CardNumber = "411111111111" }, ErrInvalidCardNumber},
		{"non-numeric number", func(c *Card) { c.CardNumber = "4111-1111-1111-1111" }, ErrInvalidCardNumber},
		{"luhn check fails", func(c *Card) { c.CardNumber = "5555555555554443" }, ErrInvalidCardNumber},
		{"single word holder", func(c *Card) { c.CardHolder = "Ivanov" }, ErrInvalidCardHolder},
		{"lowercase holder", func(c *Card) { c.CardHolder = "ivanov ivan" }, ErrInvalidCardHolder},
		{"hyphenated holder", func(c *Card) { c.CardHolder = "Ivanov-Petrov Ivan" }, nil},
		{"bad expiry month", func(c *Card) { c.ExpiryDate = "13/25" }, ErrInvalidExpiryDate},
		{"bad expiry format", func(c *Card) { c.ExpiryDate = "122025" }, ErrInvalidExpiryDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := validCard()
			tt.mutate(&card)

			err := card.IsValid()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("IsValid() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPayoutCreateRequestIsValid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PayoutCreateRequest)
		wantErr error
	}{
		{"valid request", func(*PayoutCreateRequest) {}, nil},
		{"zero amount", func(r *PayoutCreateRequest) { r.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(r *PayoutCreateRequest) { r.Amount = decimal.RequireFromString("-5") }, ErrInvalidAmount},
		{"too many decimal places", func(r *PayoutCreateRequest) { r.Amount = decimal.RequireFromString("10.505") }, ErrInvalidAmount},
		{"too many digits", func(r *PayoutCreateRequest) { r.Amount = decimal.RequireFromString("10000000000.00") }, ErrInvalidAmount},
		{"unknown currency", func(r *PayoutCreateRequest) { r.Currency = "GBP" }, ErrInvalidCurrency},
		{"empty currency", func(r *PayoutCreateRequest) { r.Currency = "" }, ErrInvalidCurrency},
		{"bad card", func(r *PayoutCreateRequest) { r.RecipientDetails.CardNumber = "123" }, ErrInvalidCardNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := PayoutCreateRequest{
				Amount:           decimal.RequireFromString("100.50"),
				Currency:         "USD",
				RecipientDetails: validCard(),
			}
			tt.mutate(&req)

			err := req.IsValid()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("IsValid() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPayoutUpdateRequestIsValid(t *testing.T) {
	cancelled := "cancelled"
	bogus := "refunded"
	note := "manual review"

	tests := []struct {
		name    string
		req     PayoutUpdateRequest
		wantErr error
	}{
		{"empty update", PayoutUpdateRequest{}, nil},
		{"status only", PayoutUpdateRequest{Status: &cancelled}, nil},
		{"description only", PayoutUpdateRequest{Description: &note}, nil},
		{"unknown status", PayoutUpdateRequest{Status: &bogus}, ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.IsValid(); !errors.Is(err, tt.wantErr) {
				t.Errorf("IsValid() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
