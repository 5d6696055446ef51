package limit

import (
	"testing"
)

var testBounds = Bounds{
	PowerMin:          50,
	PowerMaxCharge:    2000,
	PowerMaxDischarge: 1800,
}

func owned() Flags {
	return Flags{StrategyOwned: true}
}

func TestLimitPassThroughWhenNotOwned(t *testing.T) {
	tests := []int{-99999, -2500, -1, 0, 1, 2500, 99999}

	for _, requested := range tests {
		got := Limit(requested, Flags{StrategyOwned: false, BatteryEmpty: true, BatteryFull: true}, testBounds)
		if got != requested {
			t.Errorf("Limit(%d, not owned) = %d, want unchanged", requested, got)
		}
	}
}

func TestLimitBatteryProtection(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		flags     Flags
		want      int
	}{
		{"EmptyBlocksDischarge", 1000, Flags{BatteryEmpty: true, StrategyOwned: true}, 0},
		{"EmptyAllowsCharge", -1000, Flags{BatteryEmpty: true, StrategyOwned: true}, -1000},
		{"FullBlocksCharge", -1000, Flags{BatteryFull: true, StrategyOwned: true}, 0},
		{"FullAllowsDischarge", 1000, Flags{BatteryFull: true, StrategyOwned: true}, 1000},
		{"EmptyAllowsStop", 0, Flags{BatteryEmpty: true, StrategyOwned: true}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Limit(tt.requested, tt.flags, testBounds); got != tt.want {
				t.Errorf("Limit(%d) = %d, want %d", tt.requested, got, tt.want)
			}
		})
	}
}

func TestLimitCharging(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		want      int
	}{
		// -2500+50 <= 0, -2500+2000 = -500 < -10, clamp to -2000
		{"ClampToMax", -2500, -2000},
		{"DeadBandSuppressed", -30, 0},
		{"ExactlyMin", -50, -50},
		{"WithinBounds", -1500, -1500},
		{"ExactlyMax", -2000, -2000},
		{"InsideGuardBand", -2010, -2010},
		{"JustBeyondGuardBand", -2011, -2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Limit(tt.requested, owned(), testBounds); got != tt.want {
				t.Errorf("Limit(%d) = %d, want %d", tt.requested, got, tt.want)
			}
		})
	}
}

func TestLimitDischarging(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		want      int
	}{
		{"DeadBandSuppressed", 49, 0},
		{"ExactlyMin", 50, 50},
		{"WithinBounds", 1000, 1000},
		{"ExactlyMax", 1800, 1800},
		{"InsideGuardBand", 1810, 1810},
		{"JustBeyondGuardBand", 1811, 1800},
		{"ClampToMax", 5000, 1800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Limit(tt.requested, owned(), testBounds); got != tt.want {
				t.Errorf("Limit(%d) = %d, want %d", tt.requested, got, tt.want)
			}
		})
	}
}

func TestLimitZero(t *testing.T) {
	if got := Limit(0, owned(), testBounds); got != 0 {
		t.Errorf("Limit(0) = %d, want 0", got)
	}
}

// The limited value may change magnitude but never flips direction.
func TestLimitNeverFlipsSign(t *testing.T) {
	flagSets := []Flags{
		{StrategyOwned: true},
		{StrategyOwned: true, BatteryEmpty: true},
		{StrategyOwned: true, BatteryFull: true},
		{StrategyOwned: true, BatteryEmpty: true, BatteryFull: true},
	}

	for _, flags := range flagSets {
		for requested := -6000; requested <= 6000; requested += 7 {
			got := Limit(requested, flags, testBounds)
			if requested > 0 && got < 0 || requested < 0 && got > 0 {
				t.Fatalf("Limit(%d, %+v) = %d flipped sign", requested, flags, got)
			}
		}
	}
}
