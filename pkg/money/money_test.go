package money

import "testing"

func TestDisplay(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{101, "1.01"},
		{10000, "100.00"},
		{123456, "1234.56"},
	}
	for _, tt := range tests {
		if got := Display(tt.cents); got != tt.want {
			t.Fatalf("Display(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
	if got := DisplayBRL(10000); got != "R$ 100.00" {
		t.Fatalf("DisplayBRL(10000) = %q", got)
	}
}

func TestPercentOfRoundsHalfUp(t *testing.T) {
	tests := []struct {
		cents   int64
		percent int
		want    int64
	}{
		{10000, 15, 1500},
		{101, 33, 33},  // 33.33 rounds down
		{105, 50, 53},  // 52.5 rounds up
		{1, 15, 0},     // 0.15 rounds down
		{3, 50, 2},     // 1.5 rounds up
		{10000, 0, 0},
		{10000, 100, 10000},
	}
	for _, tt := range tests {
		if got := PercentOf(tt.cents, tt.percent); got != tt.want {
			t.Fatalf("PercentOf(%d, %d) = %d, want %d", tt.cents, tt.percent, got, tt.want)
		}
	}
}
