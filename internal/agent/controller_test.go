package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/camship/internal/cliconfig"
	"github.com/bft-labs/camship/internal/congestion"
	"github.com/bft-labs/camship/internal/domain"
	"github.com/bft-labs/camship/internal/telemetry"
	"github.com/bft-labs/camship/pkg/log"
)

type fakeRestarter struct {
	profiles []domain.StreamProfile
	err      error
}

func (f *fakeRestarter) Restart(_ context.Context, p domain.StreamProfile) error {
	if f.err != nil {
		return f.err
	}
	f.profiles = append(f.profiles, p)
	return nil
}

// newTestController builds a controller with a deterministic clock that
// advances two seconds per evaluation.
func newTestController(enc restarter, tel *telemetry.Telemetry, reset bool) *Controller {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewController(ControllerConfig{
		ActiveInterval:         time.Millisecond,
		StableInterval:         time.Millisecond,
		ResetCountersOnRestart: reset,
	}, enc, tel, log.NewNoopLogger())

	tick := t0
	c.now = func() time.Time {
		tick = tick.Add(2 * time.Second)
		return tick
	}
	c.estimator = congestion.New(t0)
	return c
}

func TestController_DegradesUnderSustainedPressure(t *testing.T) {
	tel := telemetry.New(1280, 720, 70)
	for i := 0; i < 25; i++ {
		tel.IncQueueDepth()
	}

	enc := &fakeRestarter{}
	c := newTestController(enc, tel, false)

	// Seven cycles: the failure counter crosses its threshold on the
	// fourth, the level climbs one step per cycle, and the switch fires
	// once the level clears the degrade bound.
	for i := 0; i < 7; i++ {
		// The evaluation overwrites the shared flag with its own view,
		// so server feedback has to be reasserted before each cycle.
		tel.SetCongested(true)
		require.NoError(t, c.evaluate(context.Background()))
	}

	require.Len(t, enc.profiles, 1)
	got := enc.profiles[0]
	assert.Equal(t, 640, got.Width)
	assert.Equal(t, 480, got.Height)
	assert.Equal(t, 36, got.Quality, "quality follows the degraded formula at the switch level")

	w, h := tel.Resolution()
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
	assert.Equal(t, 36, tel.Quality())
	assert.True(t, tel.Congested())
	assert.Equal(t, got, c.profile)
}

func TestController_QuietConditionsLeaveEncoderAlone(t *testing.T) {
	tel := telemetry.New(1280, 720, 70)
	enc := &fakeRestarter{}
	c := newTestController(enc, tel, false)

	for i := 0; i < 20; i++ {
		require.NoError(t, c.evaluate(context.Background()))
	}

	assert.Empty(t, enc.profiles)
	assert.Equal(t, 70, tel.Quality())
	assert.False(t, tel.Congested())
}

func TestController_CountersCapAndDecay(t *testing.T) {
	tel := telemetry.New(1280, 720, 70)
	c := newTestController(&fakeRestarter{}, tel, false)

	for i := 0; i < 15; i++ {
		tel.SetCongested(true)
		require.NoError(t, c.evaluate(context.Background()))
		tel.SetCongested(false)
	}
	assert.Equal(t, uint32(maxFailures), c.failures)
	assert.Equal(t, uint32(0), c.successes)

	// Quiet cycles bleed failures off one at a time while successes grow.
	require.NoError(t, c.evaluate(context.Background()))
	require.NoError(t, c.evaluate(context.Background()))
	assert.Equal(t, uint32(maxFailures-2), c.failures)
	assert.Equal(t, uint32(2), c.successes)
}

func TestController_ResetCountersOnRestart(t *testing.T) {
	tel := telemetry.New(1280, 720, 70)
	for i := 0; i < 25; i++ {
		tel.IncQueueDepth()
	}

	c := newTestController(&fakeRestarter{}, tel, true)
	for i := 0; i < 7; i++ {
		tel.SetCongested(true)
		require.NoError(t, c.evaluate(context.Background()))
	}

	assert.NotEqual(t, domain.NominalProfile, c.profile)
	assert.Equal(t, uint32(0), c.failures)
	assert.Equal(t, uint32(0), c.successes)
}

func TestController_RestartErrorIsFatal(t *testing.T) {
	tel := telemetry.New(1280, 720, 70)
	for i := 0; i < 25; i++ {
		tel.IncQueueDepth()
	}

	wantErr := errors.New("spawn failed")
	c := newTestController(&fakeRestarter{err: wantErr}, tel, false)

	var err error
	for i := 0; i < 10 && err == nil; i++ {
		tel.SetCongested(true)
		err = c.evaluate(context.Background())
	}
	require.ErrorIs(t, err, wantErr)
}

func TestController_SetIntervals(t *testing.T) {
	tel := telemetry.New(1280, 720, 70)
	c := NewController(ControllerConfig{
		ActiveInterval: 2 * time.Second,
		StableInterval: 5 * time.Second,
	}, &fakeRestarter{}, tel, log.NewNoopLogger())

	assert.Equal(t, 2*time.Second, c.interval())

	c.SetIntervals(time.Second, 10*time.Second)
	assert.Equal(t, time.Second, c.interval())

	// Non-positive values leave the cadence untouched.
	c.SetIntervals(0, -time.Second)
	assert.Equal(t, time.Second, c.interval())

	// The relaxed cadence applies once the estimator has been stable.
	for i := 0; i <= stableThreshold; i++ {
		c.estimator.Evaluate(congestion.Sample{}, time.Now())
	}
	assert.Equal(t, 10*time.Second, c.interval())
}

func TestApplyRuntimeConfig(t *testing.T) {
	tel := telemetry.New(1280, 720, 70)
	c := NewController(ControllerConfig{
		ActiveInterval: 2 * time.Second,
		StableInterval: 5 * time.Second,
	}, &fakeRestarter{}, tel, log.NewNoopLogger())

	applyRuntimeConfig(cliconfig.FileConfig{
		ActiveInterval: "500ms",
		StableInterval: "bogus",
	}, c, log.NewNoopLogger())

	assert.Equal(t, 500*time.Millisecond, c.interval())
	assert.Equal(t, 5*time.Second, time.Duration(c.stableInterval.Load()))
}

func TestController_RunStopsOnCancel(t *testing.T) {
	tel := telemetry.New(1280, 720, 70)
	c := newTestController(&fakeRestarter{}, tel, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("controller did not stop after cancel")
	}
}
