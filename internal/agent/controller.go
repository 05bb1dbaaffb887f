package agent

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bft-labs/camship/internal/congestion"
	"github.com/bft-labs/camship/internal/domain"
	"github.com/bft-labs/camship/internal/telemetry"
	"github.com/bft-labs/camship/pkg/log"
)

const (
	// Counter caps for the controller's own failure/success tracking. These
	// observe overlapping but not identical signals to the transport
	// session's counters; the two are deliberately not reconciled.
	maxFailures  = 10
	maxSuccesses = 30

	// failureOccupancy is the queue depth the controller counts as a bad
	// cycle even without a server congestion signal.
	failureOccupancy = 15

	// stableThreshold is the stability count above which the controller
	// polls at the relaxed cadence.
	stableThreshold = 15

	// significantQualityDelta is the quality change below which the
	// running encoder is left alone.
	significantQualityDelta = 5
)

// restarter is the slice of the encoder supervisor the controller needs.
type restarter interface {
	Restart(ctx context.Context, profile domain.StreamProfile) error
}

// ControllerConfig tunes the evaluation loop.
type ControllerConfig struct {
	ActiveInterval time.Duration
	StableInterval time.Duration

	// ResetCountersOnRestart clears the failure/success counters after an
	// encoder restart instead of letting them persist across profile
	// changes.
	ResetCountersOnRestart bool
}

// Controller is the top-level adaptation loop: it polls shared telemetry,
// drives the congestion estimator, and applies significant profile changes
// by restarting the encoder. It publishes the new quality and resolution
// before the restart so the transport session stamps frames correctly.
type Controller struct {
	encoder   restarter
	tel       *telemetry.Telemetry
	estimator *congestion.Estimator
	logger    log.Logger
	now       func() time.Time

	resetCounters bool

	// Cadence is hot-reloadable from the config file, hence atomic.
	activeInterval atomic.Int64
	stableInterval atomic.Int64

	profile   domain.StreamProfile
	failures  uint32
	successes uint32
}

// NewController creates a controller starting from the given profile.
func NewController(cfg ControllerConfig, enc restarter, tel *telemetry.Telemetry, logger log.Logger) *Controller {
	now := time.Now
	c := &Controller{
		encoder:       enc,
		tel:           tel,
		estimator:     congestion.New(now()),
		logger:        logger,
		now:           now,
		resetCounters: cfg.ResetCountersOnRestart,
		profile:       domain.NominalProfile,
	}
	c.SetIntervals(cfg.ActiveInterval, cfg.StableInterval)
	return c
}

// SetIntervals updates the evaluation cadence. Zero or negative values leave
// the corresponding interval unchanged. Safe to call while Run is active.
func (c *Controller) SetIntervals(active, stable time.Duration) {
	if active > 0 {
		c.activeInterval.Store(int64(active))
	}
	if stable > 0 {
		c.stableInterval.Store(int64(stable))
	}
}

// Run evaluates once per interval until the context is canceled. The
// cadence relaxes once conditions have been stable for a while.
func (c *Controller) Run(ctx context.Context) error {
	for {
		if err := c.evaluate(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.interval()):
		}
	}
}

// evaluate performs one control cycle.
func (c *Controller) evaluate(ctx context.Context) error {
	occupancy := c.tel.QueueDepth()
	serverCongested := c.tel.Congested()

	if serverCongested || occupancy > failureOccupancy {
		if c.failures < maxFailures {
			c.failures++
		}
		c.successes = 0
	} else {
		if c.successes < maxSuccesses {
			c.successes++
		}
		if c.failures > 0 {
			c.failures--
		}
	}

	rec := c.estimator.Evaluate(congestion.Sample{
		Occupancy:       occupancy,
		Failures:        c.failures,
		ServerCongested: serverCongested,
	}, c.now())

	c.tel.SetCongested(rec.Congested)

	if !c.significant(rec.Profile) {
		return nil
	}

	c.logger.Info("adjusting encoder",
		log.String("resolution", rec.Profile.Resolution()),
		log.Int("quality", rec.Profile.Quality),
		log.Int64("occupancy", occupancy),
		log.Bool("congested", rec.Congested),
		log.Int("level", c.estimator.State().Level),
	)

	// Publish the profile first: frames from the new process must carry
	// the new stats.
	c.tel.SetQuality(rec.Profile.Quality)
	c.tel.SetResolution(rec.Profile.Width, rec.Profile.Height)

	if err := c.encoder.Restart(ctx, rec.Profile); err != nil {
		return err
	}
	c.profile = rec.Profile

	if c.resetCounters {
		c.failures = 0
		c.successes = 0
	}
	return nil
}

// significant reports whether the recommendation differs enough from the
// running profile to justify an encoder restart.
func (c *Controller) significant(p domain.StreamProfile) bool {
	if p.Width != c.profile.Width || p.Height != c.profile.Height {
		return true
	}
	delta := p.Quality - c.profile.Quality
	if delta < 0 {
		delta = -delta
	}
	return delta > significantQualityDelta
}

func (c *Controller) interval() time.Duration {
	if c.estimator.State().Stability > stableThreshold {
		return time.Duration(c.stableInterval.Load())
	}
	return time.Duration(c.activeInterval.Load())
}
