package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLamportsToDisplay(t *testing.T) {
	tests := []struct {
		lamports uint64
		want     string
	}{
		{0, "0"},
		{1, "0.000000001"},
		{1_000_000_000, "1"},
		{2_500_000_000, "2.5"},
		{18_446_744_073_709_551_615, "18446744073.709551615"},
	}
	for _, tt := range tests {
		if got := LamportsToDisplay(tt.lamports).String(); got != tt.want {
			t.Errorf("LamportsToDisplay(%d) = %s, want %s", tt.lamports, got, tt.want)
		}
	}
}

func TestDisplayToLamports(t *testing.T) {
	tests := []struct {
		amount  string
		want    uint64
		wantErr bool
	}{
		{amount: "1", want: 1_000_000_000},
		{amount: "0.000000001", want: 1},
		{amount: "0", want: 0},
		{amount: "-0.5", wantErr: true},
		{amount: "0.0000000001", wantErr: true},
		{amount: "100000000000", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := DisplayToLamports("amount", decimal.RequireFromString(tt.amount))
			if tt.wantErr {
				if !HasCode(err, ErrCodeValidation) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DisplayToLamports(%s) = %d, want %d", tt.amount, got, tt.want)
			}
		})
	}
}
