package congestion

import (
	"time"

	"github.com/bft-labs/camship/internal/domain"
)

// Tunables for the congestion heuristic. The asymmetric time and stability
// gates exist solely to damp oscillation; this is not a rate-control
// algorithm with provable convergence.
const (
	maxLevel = 10

	degradeLevel   = 6
	degradeHoldoff = 2 * time.Second

	upgradeLevel     = 3
	upgradeHoldoff   = 15 * time.Second
	upgradeStability = 20

	downgradeStability = 5
	stabilityResetGap  = 2
)

// NetworkState summarizes combined network, queue, and failure pressure.
// It is owned by a single evaluator; nothing else mutates it.
type NetworkState struct {
	// Congested reports whether the degraded profile is active.
	Congested bool

	// Level is the inertia-smoothed congestion level on a 0-10 scale.
	Level int

	// Stability counts consecutive evaluations without a large swing in
	// the indicator. It gates downgrades of Level and profile upgrades.
	Stability int

	// LastChange is when the resolution last switched.
	LastChange time.Time
}

// Sample is one observation fed into the estimator.
type Sample struct {
	Occupancy       int64
	Failures        uint32
	ServerCongested bool
}

// Recommendation is the estimator's output for one evaluation.
type Recommendation struct {
	Profile   domain.StreamProfile
	Congested bool
}

// Estimator is a pure state machine: telemetry in, recommended profile and
// congestion flag out. It performs no I/O and takes the clock as an
// argument, so a scripted input sequence yields a deterministic level trace.
type Estimator struct {
	state NetworkState
}

// New creates an estimator starting at the nominal profile with zero
// congestion. The switch holdoff timers are measured from start.
func New(start time.Time) *Estimator {
	return &Estimator{state: NetworkState{LastChange: start}}
}

// State returns a copy of the current network state.
func (e *Estimator) State() NetworkState {
	return e.state
}

// Evaluate folds one sample into the state and returns the recommended
// profile.
//
// The level moves toward the combined indicator by at most one step per
// evaluation, and only moves down after more than five stable evaluations.
// Resolution switches are further gated: degrading requires level above 6
// and at least 2s since the last switch; upgrading requires level below 3,
// at least 15s since the last switch, and a long stable run. Outside a
// switch the active resolution is retained and only quality is recomputed.
func (e *Estimator) Evaluate(s Sample, now time.Time) Recommendation {
	indicator := indicatorScore(s)

	if indicator > e.state.Level {
		e.state.Level++
		if e.state.Level > maxLevel {
			e.state.Level = maxLevel
		}
	} else if indicator < e.state.Level && e.state.Stability > downgradeStability {
		e.state.Level--
		if e.state.Level < 0 {
			e.state.Level = 0
		}
	}

	if abs(indicator-e.state.Level) > stabilityResetGap {
		e.state.Stability = 0
	} else {
		e.state.Stability++
	}

	elapsed := now.Sub(e.state.LastChange)

	shouldDegrade := e.state.Level > degradeLevel &&
		elapsed >= degradeHoldoff &&
		!e.state.Congested

	shouldUpgrade := e.state.Level < upgradeLevel &&
		elapsed >= upgradeHoldoff &&
		e.state.Congested &&
		e.state.Stability > upgradeStability

	if shouldDegrade {
		e.state.Congested = true
		e.state.LastChange = now
	} else if shouldUpgrade {
		e.state.Congested = false
		e.state.LastChange = now
	}

	return Recommendation{
		Profile:   e.profile(),
		Congested: e.state.Congested,
	}
}

// profile derives the recommended profile from the current state. Quality
// tracks the level continuously within the active resolution, floored at
// the minimum quality.
func (e *Estimator) profile() domain.StreamProfile {
	var p domain.StreamProfile
	if e.state.Congested {
		p = domain.DegradedProfile
		p.Quality = 50 - 2*e.state.Level
	} else {
		p = domain.NominalProfile
		p.Quality = 70 - 3*e.state.Level
	}
	if p.Quality < domain.MinQuality {
		p.Quality = domain.MinQuality
	}
	return p
}

// indicatorScore combines queue pressure, send failures, and the
// server-reported flag into a single score.
func indicatorScore(s Sample) int {
	score := 0
	switch {
	case s.Occupancy > 20:
		score += 2
	case s.Occupancy > 10:
		score++
	}
	switch {
	case s.Failures > 3:
		score += 3
	case s.Failures > 0:
		score++
	}
	if s.ServerCongested {
		score += 3
	}
	return score
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
