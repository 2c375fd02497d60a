package tap

import "time"

// WindowSize is the number of tap timestamps retained for the estimate.
// Older taps age out after WindowSize more taps arrive.
const WindowSize = 10

// Estimator derives a tempo from a bounded window of tap timestamps.
// It favors recency over robustness: no outlier rejection is applied
// beyond the window itself.
type Estimator struct {
	window [WindowSize]time.Time
	head   int // next write position
	count  int
}

func NewEstimator() *Estimator {
	return &Estimator{}
}

// RecordTap appends a timestamp to the window. When the window is full
// the oldest timestamp is evicted first.
func (e *Estimator) RecordTap(t time.Time) {
	e.window[e.head] = t
	e.head = (e.head + 1) % WindowSize
	if e.count < WindowSize {
		e.count++
	}
}

// Count reports how many taps the window currently holds.
func (e *Estimator) Count() int {
	return e.count
}

// Reset empties the window. Called on track change, playback restart,
// and manual override.
func (e *Estimator) Reset() {
	e.head = 0
	e.count = 0
}

// BPM returns 60 divided by the mean inter-tap interval in seconds, over
// the consecutive deltas of the window. The second return is false when
// fewer than two taps are held or no usable interval exists. An interval
// of zero (two taps within the clock resolution) is excluded from the
// mean rather than divided by.
func (e *Estimator) BPM() (float64, bool) {
	if e.count < 2 {
		return 0, false
	}
	start := (e.head - e.count + WindowSize) % WindowSize
	prev := e.window[start]
	sum := 0.0
	usable := 0
	for i := 1; i < e.count; i++ {
		cur := e.window[(start+i)%WindowSize]
		d := cur.Sub(prev).Seconds()
		prev = cur
		if d <= 0 {
			continue
		}
		sum += d
		usable++
	}
	if usable == 0 {
		return 0, false
	}
	return 60 / (sum / float64(usable)), true
}
