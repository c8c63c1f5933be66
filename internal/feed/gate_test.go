package feed

import (
	"testing"
	"time"
)

func TestStalenessGate_IsFresh(t *testing.T) {
	gate := NewStalenessGate(5 * time.Second)
	t0 := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		observedAt time.Time
		now        time.Time
		want       bool
	}{
		{"just observed", t0, t0, true},
		{"within threshold", t0, t0.Add(4 * time.Second), true},
		{"exactly at threshold", t0, t0.Add(5 * time.Second), true},
		{"past threshold", t0, t0.Add(5*time.Second + time.Millisecond), false},
		{"never observed", time.Time{}, t0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := gate.IsFresh(tc.observedAt, tc.now); got != tc.want {
				t.Errorf("IsFresh = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStalenessGate_TransitionsFireOnce(t *testing.T) {
	gate := NewStalenessGate(5 * time.Second)
	t0 := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)

	// Starts stale; repeated stale checks emit nothing.
	if ev := gate.Check(time.Time{}, t0); ev != Unchanged {
		t.Errorf("initial stale check = %v, want Unchanged", ev)
	}

	// First fresh observation transitions once.
	if ev := gate.Check(t0, t0); ev != BecameFresh {
		t.Errorf("first fresh check = %v, want BecameFresh", ev)
	}
	if ev := gate.Check(t0, t0.Add(time.Second)); ev != Unchanged {
		t.Errorf("repeated fresh check = %v, want Unchanged", ev)
	}

	// Expiry transitions once, then repeated stale polls stay silent.
	if ev := gate.Check(t0, t0.Add(6*time.Second)); ev != BecameStale {
		t.Errorf("first stale check = %v, want BecameStale", ev)
	}
	for i := 0; i < 3; i++ {
		if ev := gate.Check(t0, t0.Add(time.Duration(7+i)*time.Second)); ev != Unchanged {
			t.Fatalf("repeated stale check %d = %v, want Unchanged", i, ev)
		}
	}

	// Recovery transitions again.
	t1 := t0.Add(20 * time.Second)
	if ev := gate.Check(t1, t1); ev != BecameFresh {
		t.Errorf("recovery check = %v, want BecameFresh", ev)
	}
}
