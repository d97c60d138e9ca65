package domain

import "testing"

func TestStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"pending to processing", StatusPending, StatusProcessing, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"pending to completed", StatusPending, StatusCompleted, false},
		{"processing to completed", StatusProcessing, StatusCompleted, true},
		{"processing to failed", StatusProcessing, StatusFailed, true},
		{"processing to cancelled", StatusProcessing, StatusCancelled, true},
		{"processing to pending", StatusProcessing, StatusPending, false},
		{"failed to pending", StatusFailed, StatusPending, true},
		{"failed to processing", StatusFailed, StatusProcessing, true},
		{"failed to completed", StatusFailed, StatusCompleted, false},
		{"completed is terminal", StatusCompleted, StatusProcessing, false},
		{"completed stays completed", StatusCompleted, StatusFailed, false},
		{"cancelled is terminal", StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestPayoutCanBeProcessed(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, true},
		{StatusFailed, true},
		{StatusProcessing, false},
		{StatusCompleted, false},
		{StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			payout := &Payout{Status: tt.status}
			if got := payout.CanBeProcessed(); got != tt.want {
				t.Errorf("CanBeProcessed() for %s = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusPending:    false,
		StatusProcessing: false,
		StatusCompleted:  true,
		StatusFailed:     true,
		StatusCancelled:  true,
	}

	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("Terminal() for %s = %v, want %v", status, got, want)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled} {
		if !status.Valid() {
			t.Errorf("expected %s to be valid", status)
		}
	}

	if Status("refunded").Valid() {
		t.Error("expected unknown status to be invalid")
	}
}

func TestCurrencyValid(t *testing.T) {
	for _, currency := range []Currency{CurrencyRUB, CurrencyUSD, CurrencyEUR} {
		if !currency.Valid() {
			t.Errorf("expected %s to be valid", currency)
		}
	}

	if Currency("GBP").Valid() {
		t.Error("expected GBP to be invalid")
	}
}
