package tap

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func tapsAt(e *Estimator, base time.Time, offsets ...time.Duration) {
	for _, off := range offsets {
		e.RecordTap(base.Add(off))
	}
}

func TestEstimatorBPM(t *testing.T) {
	base := time.Unix(1000, 0)

	t.Run("half second taps give 120 BPM", func(t *testing.T) {
		e := NewEstimator()
		tapsAt(e, base, 0, 500*time.Millisecond, 1000*time.Millisecond, 1500*time.Millisecond)

		bpm, ok := e.BPM()
		assert.True(t, ok, "four evenly spaced taps should produce an estimate")
		assert.InDelta(t, 120.0, bpm, 0.001)
	})

	t.Run("uneven taps average out", func(t *testing.T) {
		e := NewEstimator()
		tapsAt(e, base, 0, 400*time.Millisecond, 1000*time.Millisecond)

		// Deltas of 0.4s and 0.6s average to 0.5s.
		bpm, ok := e.BPM()
		assert.True(t, ok)
		assert.InDelta(t, 120.0, bpm, 0.001)
	})

	t.Run("no estimate below two taps", func(t *testing.T) {
		e := NewEstimator()
		_, ok := e.BPM()
		assert.False(t, ok, "empty window should not estimate")

		e.RecordTap(base)
		_, ok = e.BPM()
		assert.False(t, ok, "a single tap should not estimate")
	})

	t.Run("identical timestamps never divide by zero", func(t *testing.T) {
		e := NewEstimator()
		tapsAt(e, base, 0, 0)

		_, ok := e.BPM()
		assert.False(t, ok, "a lone zero delta holds no usable interval")

		e.RecordTap(base.Add(500 * time.Millisecond))
		bpm, ok := e.BPM()
		assert.True(t, ok)
		assert.False(t, math.IsInf(bpm, 0), "zero delta must be excluded, not divided by")
		assert.False(t, math.IsNaN(bpm))
		assert.InDelta(t, 120.0, bpm, 0.001, "only the nonzero delta should count")
	})
}

func TestEstimatorWindow(t *testing.T) {
	base := time.Unix(1000, 0)

	t.Run("window never exceeds ten taps", func(t *testing.T) {
		e := NewEstimator()
		for i := 0; i < 25; i++ {
			e.RecordTap(base.Add(time.Duration(i) * time.Second))
		}
		assert.Equal(t, WindowSize, e.Count())
	})

	t.Run("eleventh tap evicts the oldest", func(t *testing.T) {
		e := NewEstimator()
		// A stale first tap far in the past, then ten taps at a steady
		// half-second pulse. Once the eleventh tap lands, the stale tap
		// is gone and the estimate reflects the steady pulse alone.
		e.RecordTap(base)
		for i := 0; i < WindowSize; i++ {
			e.RecordTap(base.Add(100*time.Second + time.Duration(i)*500*time.Millisecond))
		}

		assert.Equal(t, WindowSize, e.Count())
		bpm, ok := e.BPM()
		assert.True(t, ok)
		assert.InDelta(t, 120.0, bpm, 0.001, "the stale tap should have aged out")
	})

	t.Run("reset empties the window", func(t *testing.T) {
		e := NewEstimator()
		tapsAt(e, base, 0, 500*time.Millisecond, time.Second)
		assert.Equal(t, 3, e.Count())

		e.Reset()
		assert.Equal(t, 0, e.Count())
		_, ok := e.BPM()
		assert.False(t, ok, "reset should discard the estimate")

		// The window works normally after a reset.
		tapsAt(e, base, 2*time.Second, 3*time.Second)
		bpm, ok := e.BPM()
		assert.True(t, ok)
		assert.InDelta(t, 60.0, bpm, 0.001)
	})
}
