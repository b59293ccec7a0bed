package rounding

import (
	"testing"
	"time"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		minutes  int
		policy   Policy
		expected int
	}{
		{"none passthrough", 517, PolicyNone, 517},
		{"15-minute rule remainder 7 rounds down", 517, Policy15, 510},
		{"15-minute rule remainder 8 rounds up", 518, Policy15, 525},
		{"5-minute nearest remainder 2 rounds down", 512, Policy5, 510},
		{"5-minute nearest rounds down below midpoint", 511, Policy5, 510},
		{"30-minute nearest", 46, Policy30, 60},
		{"30-minute nearest rounds up", 47, Policy30, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Apply(tt.minutes, tt.policy); got != tt.expected {
				t.Errorf("Apply(%d, %s) = %d, want %d", tt.minutes, tt.policy, got, tt.expected)
			}
		})
	}
}

func TestComputePaidMinutesOpenShift(t *testing.T) {
	in := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	if got := ComputePaidMinutes(in, nil, 30, PolicyNone, false); got != 0 {
		t.Errorf("open shift should contribute 0 minutes, got %d", got)
	}
}

func TestComputePaidMinutesScenarioS1(t *testing.T) {
	in := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	out := time.Date(2025, 6, 16, 18, 7, 0, 0, time.UTC)
	got := ComputePaidMinutes(in, &out, 30, Policy15, false)
	if got != 510 {
		t.Errorf("S1 daily paid minutes = %d, want 510", got)
	}
}

func TestComputePaidMinutesBreaksPaid(t *testing.T) {
	in := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	out := time.Date(2025, 6, 16, 17, 0, 0, 0, time.UTC)
	got := ComputePaidMinutes(in, &out, 30, PolicyNone, true)
	if got != 480 {
		t.Errorf("breaks_paid=true should not subtract break minutes: got %d, want 480", got)
	}
}

func TestMonotonicity(t *testing.T) {
	in := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	policies := []Policy{PolicyNone, Policy5, Policy6, Policy10, Policy15, Policy30}
	for _, p := range policies {
		prev := 0
		for minutesElapsed := 0; minutesElapsed <= 120; minutesElapsed++ {
			out := in.Add(time.Duration(minutesElapsed) * time.Minute)
			got := ComputePaidMinutes(in, &out, 0, p, true)
			if got < prev {
				t.Fatalf("policy %s not monotonic at %d minutes: got %d < prev %d", p, minutesElapsed, got, prev)
			}
			prev = got
		}
	}
}
