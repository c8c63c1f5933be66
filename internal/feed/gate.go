package feed

import "time"

// FreshnessEvent reports a staleness transition observed by a gate check.
type FreshnessEvent int

const (
	Unchanged FreshnessEvent = iota
	BecameFresh
	BecameStale
)

func (e FreshnessEvent) String() string {
	switch e {
	case BecameFresh:
		return "became_fresh"
	case BecameStale:
		return "became_stale"
	default:
		return "unchanged"
	}
}

// StalenessGate decides whether an observation time is still fresh against an
// expiry threshold and emits exactly one event per fresh/stale transition.
// A gate starts out stale.
type StalenessGate struct {
	expiry   time.Duration
	wasStale bool
}

// NewStalenessGate creates a gate with the given expiry threshold.
func NewStalenessGate(expiry time.Duration) *StalenessGate {
	return &StalenessGate{expiry: expiry, wasStale: true}
}

// IsFresh reports whether the observation is within the expiry window. The
// zero time (nothing observed yet) is never fresh.
func (g *StalenessGate) IsFresh(observedAt, now time.Time) bool {
	if observedAt.IsZero() {
		return false
	}
	return now.Sub(observedAt) <= g.expiry
}

// Check compares the current freshness against the remembered state, updates
// that state, and reports the transition if one happened. This is what keeps
// "became available" / "has expired" notifications to one per transition
// instead of one per poll.
func (g *StalenessGate) Check(observedAt, now time.Time) FreshnessEvent {
	fresh := g.IsFresh(observedAt, now)
	switch {
	case fresh && g.wasStale:
		g.wasStale = false
		return BecameFresh
	case !fresh && !g.wasStale:
		g.wasStale = true
		return BecameStale
	default:
		return Unchanged
	}
}
