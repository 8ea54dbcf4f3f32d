package models

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{AlertStatusPending, AlertStatusResponding, true},
		{AlertStatusPending, AlertStatusResolved, true},
		{AlertStatusPending, AlertStatusCancelled, true},
		{AlertStatusResponding, AlertStatusResolved, true},
		{AlertStatusResponding, AlertStatusCancelled, true},
		{AlertStatusResponding, AlertStatusPending, false},
		{AlertStatusResolved, AlertStatusResponding, false},
		{AlertStatusResolved, AlertStatusCancelled, false},
		{AlertStatusCancelled, AlertStatusResponding, false},
		{AlertStatusCancelled, AlertStatusResolved, false},
		{"bogus", AlertStatusResolved, false},
		{AlertStatusPending, "bogus", false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminalStatus(t *testing.T) {
	terminal := map[string]bool{
		AlertStatusPending:    false,
		AlertStatusResponding: false,
		AlertStatusResolved:   true,
		AlertStatusCancelled:  true,
		"bogus":               false,
	}

	for status, want := range terminal {
		if got := IsTerminalStatus(status); got != want {
			t.Errorf("IsTerminalStatus(%q) = %v, want %v", status, got, want)
		}
	}
}

func TestDerivePriority(t *testing.T) {
	cases := map[string]string{
		AlertTypeSOS:      PriorityCritical,
		AlertTypeMedical:  PriorityCritical,
		AlertTypeFire:     PriorityHigh,
		AlertTypeCrime:    PriorityHigh,
		AlertTypeAccident: PriorityMedium,
		AlertTypeRescue:   PriorityMedium,
		AlertTypeNatural:  PriorityLow,
		AlertTypeOther:    PriorityLow,
		"unknown":         PriorityLow,
	}

	for alertType, want := range cases {
		if got := DerivePriority(alertType); got != want {
			t.Errorf("DerivePriority(%q) = %q, want %q", alertType, got, want)
		}
	}
}
