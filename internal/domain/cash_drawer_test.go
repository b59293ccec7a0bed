package domain

import "testing"

func TestDeltaCentsOpenSession(t *testing.T) {
	s := &CashDrawerSession{StartCashCents: 10000}
	if got := s.DeltaCents(); got != 0 {
		t.Errorf("DeltaCents() on an open session = %d, want 0", got)
	}
}

func TestDeltaCentsClosedSession(t *testing.T) {
	end := 12500
	s := &CashDrawerSession{StartCashCents: 10000, EndCashCents: &end}
	if got := s.DeltaCents(); got != 2500 {
		t.Errorf("DeltaCents() = %d, want 2500", got)
	}
}

func TestDeltaCentsShortage(t *testing.T) {
	end := 9000
	s := &CashDrawerSession{StartCashCents: 10000, EndCashCents: &end}
	if got := s.DeltaCents(); got != -1000 {
		t.Errorf("DeltaCents() = %d, want -1000", got)
	}
}
