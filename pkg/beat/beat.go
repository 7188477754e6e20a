package beat

import (
	"math"
	"sync"
	"time"

	"github.com/itohio/godrum/pkg/config"
	"github.com/itohio/godrum/pkg/sample"
)

var _ BeatTracker = (*Tracker)(nil)

// Hit represents a detected strike transient.
type Hit struct {
	StartIndex int       // Start sample index in buffer
	EndIndex   int       // End sample index in buffer (updated while the transient rings)
	StartTime  time.Time // Start timestamp
	EndTime    time.Time // End timestamp (updated while the transient rings)
	Peak       float64   // Highest normalized level seen during the hit
}

// BeatTracker processes samples, maintains buffers, detects hits, and
// estimates the playing tempo.
type BeatTracker interface {
	ProcessSamples(input <-chan sample.Sample)
	Samples() []sample.Sample                                                       // Get current samples buffer (FIFO, ordered first to last)
	Envelope() []float64                                                            // Get peak-follower envelope (corresponds 1:1 to Samples)
	Hits() []Hit                                                                    // Get detected hits within window
	BPM() float64                                                                   // Tempo estimate from inter-hit intervals (0 if fewer than 2 hits)
	OnUpdate(func(samples []sample.Sample, envelope []float64, hits []Hit, bpm float64)) // Register callback for updates
}

// Tracker implements BeatTracker.
// Internally uses FIFO buffers (can be implemented as ring buffers for efficiency).
// Externally exposes ordered slices (first sample first, latest last).
type Tracker struct {
	cfg *config.Config

	// Buffers
	// Samples and envelope are FIFO buffers that maintain order:
	// - First sample is at index 0 (oldest)
	// - Latest sample is at the end (newest)
	// Removal is based on timestamp (time window), not number of samples.
	//
	// The envelope corresponds exactly to samples:
	// - envelope[i] is the peak-follower value at samples[i]
	// - envelope[i] = max(samples[i].Level, envelope[i-1] * exp(-dt/tau))
	// - n samples = n envelope values, trimmed in lockstep
	samples  []sample.Sample
	envelope []float64
	hits     []Hit

	// Thread safety
	mu sync.RWMutex

	// Update callbacks
	// Callbacks receive current samples, envelope, hits, and BPM directly
	callbacks []func(samples []sample.Sample, envelope []float64, hits []Hit, bpm float64)
	cbMu      sync.RWMutex

	// Configuration
	windowDuration time.Duration
	threshold      float64
	minHitGap      time.Duration
	envelopeDecay  float64 // seconds

	// Detection state
	inHit bool // Currently inside an above-threshold transient

	// Shutdown control
	shutdown bool // Set to true when input channel closes, prevents further callbacks
}

// New creates a new BeatTracker instance.
// Returns concrete type (*Tracker) following Go best practices.
func New(cfg *config.Config) *Tracker {
	return &Tracker{
		cfg:            cfg,
		samples:        make([]sample.Sample, 0),
		envelope:       make([]float64, 0),
		hits:           make([]Hit, 0),
		callbacks:      make([]func(samples []sample.Sample, envelope []float64, hits []Hit, bpm float64), 0),
		windowDuration: time.Duration(cfg.Beat.WindowSeconds * float64(time.Second)),
		threshold:      cfg.Beat.HitThreshold,
		minHitGap:      time.Duration(cfg.Beat.MinHitGap * float64(time.Second)),
		envelopeDecay:  cfg.Beat.EnvelopeDecay,
		shutdown:       false,
	}
}

// ProcessSamples processes samples from the input channel in a goroutine.
// When the input channel closes, it sets shutdown flag to prevent further callbacks.
func (t *Tracker) ProcessSamples(input <-chan sample.Sample) {
	for s := range input {
		t.processSample(s)
	}
	// Channel closed - mark as shutdown to prevent further callbacks
	t.mu.Lock()
	t.shutdown = true
	t.mu.Unlock()
}

// processSample adds a sample to the buffer, updates the envelope, and detects hits.
func (t *Tracker) processSample(s sample.Sample) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Update the peak-follower envelope before appending: it needs the
	// previous sample's timestamp and envelope value
	env := s.Level
	if n := len(t.samples); n > 0 && t.envelopeDecay > 0 {
		dt := s.Timestamp.Sub(t.samples[n-1].Timestamp).Seconds()
		if dt > 0 {
			decayed := t.envelope[n-1] * math.Exp(-dt/t.envelopeDecay)
			if decayed > env {
				env = decayed
			}
		}
	}

	// Add sample and envelope to FIFO buffers (kept in lockstep)
	t.samples = append(t.samples, s)
	t.envelope = append(t.envelope, env)

	// Remove samples outside time window (based on timestamp, not count)
	// Calculate cutoff time: samples before this time are outside the window
	cutoffTime := s.Timestamp.Add(-t.windowDuration)
	cutoffIndex := 0
	for i, smp := range t.samples {
		if smp.Timestamp.After(cutoffTime) {
			cutoffIndex = i
			break
		}
	}
	if cutoffIndex > 0 {
		// Remove samples before cutoffIndex (they're outside the time window)
		// and the corresponding envelope values to keep exact correspondence
		t.samples = t.samples[cutoffIndex:]
		t.envelope = t.envelope[cutoffIndex:]

		// Adjust hit indices
		for i := range t.hits {
			t.hits[i].StartIndex -= cutoffIndex
			t.hits[i].EndIndex -= cutoffIndex
		}
		// Remove hits with invalid indices
		validHits := make([]Hit, 0)
		for _, hit := range t.hits {
			if hit.StartIndex >= 0 && hit.EndIndex >= 0 {
				validHits = append(validHits, hit)
			}
		}
		t.hits = validHits
		if len(t.hits) == 0 {
			t.inHit = false
		}
	}

	// Detect and update hits
	t.updateHits()

	// Check shutdown flag and prepare for callback (must do this while holding lock)
	shouldNotify := !t.shutdown

	// Release lock before calling notifyCallbacks (which needs RLock)
	// This prevents deadlock: we can't acquire RLock while holding Lock
	t.mu.Unlock()

	if shouldNotify {
		t.notifyCallbacks()
	}

	// Re-acquire lock for defer (though we're about to return anyway)
	t.mu.Lock()
}

// updateHits detects and updates hits based on the latest sample level.
func (t *Tracker) updateHits() {
	lastIdx := len(t.samples) - 1
	if lastIdx < 0 {
		return
	}

	s := t.samples[lastIdx]

	if s.Level <= t.threshold {
		// Below threshold: the current transient (if any) has ended
		t.inHit = false
		return
	}

	if t.inHit && len(t.hits) > 0 {
		// Still inside the same transient, extend it
		hit := &t.hits[len(t.hits)-1]
		hit.EndIndex = lastIdx
		hit.EndTime = s.Timestamp
		if s.Level > hit.Peak {
			hit.Peak = s.Level
		}
		return
	}

	// New threshold crossing. Piezo discs ring after a strike, so a crossing
	// shortly after the previous hit is the same physical strike - fold it in
	// instead of counting a new one.
	if len(t.hits) > 0 {
		lastHit := &t.hits[len(t.hits)-1]
		if s.Timestamp.Sub(lastHit.EndTime) < t.minHitGap {
			lastHit.EndIndex = lastIdx
			lastHit.EndTime = s.Timestamp
			if s.Level > lastHit.Peak {
				lastHit.Peak = s.Level
			}
			t.inHit = true
			return
		}
	}

	// Start a new hit
	t.hits = append(t.hits, Hit{
		StartIndex: lastIdx,
		EndIndex:   lastIdx,
		StartTime:  s.Timestamp,
		EndTime:    s.Timestamp,
		Peak:       s.Level,
	})
	t.inHit = true
}

// bpmLocked estimates the tempo from mean inter-hit spacing within the window.
// Caller must hold at least a read lock.
func (t *Tracker) bpmLocked() float64 {
	if len(t.hits) < 2 {
		return 0
	}

	first := t.hits[0].StartTime
	last := t.hits[len(t.hits)-1].StartTime
	span := last.Sub(first).Seconds()
	if span <= 0 {
		return 0
	}

	meanInterval := span / float64(len(t.hits)-1)
	return 60.0 / meanInterval
}

// Samples returns a copy of the current samples buffer.
func (t *Tracker) Samples() []sample.Sample {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]sample.Sample, len(t.samples))
	copy(result, t.samples)
	return result
}

// Envelope returns a copy of the current envelope buffer.
func (t *Tracker) Envelope() []float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]float64, len(t.envelope))
	copy(result, t.envelope)
	return result
}

// Hits returns a copy of the current hits list.
func (t *Tracker) Hits() []Hit {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]Hit, len(t.hits))
	copy(result, t.hits)
	return result
}

// BPM returns the current tempo estimate, or 0 if fewer than two hits are in
// the window.
func (t *Tracker) BPM() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.bpmLocked()
}

// OnUpdate registers a callback function that will be called when samples are updated.
// The callback receives current samples, envelope, hits, and BPM directly.
// The callback should copy data quickly and return as fast as possible.
func (t *Tracker) OnUpdate(callback func(samples []sample.Sample, envelope []float64, hits []Hit, bpm float64)) {
	t.cbMu.Lock()
	defer t.cbMu.Unlock()
	t.callbacks = append(t.callbacks, callback)
}

// ResetShutdown resets the shutdown flag, allowing callbacks to be sent again.
// This should be called before starting a new measurement chain.
func (t *Tracker) ResetShutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shutdown = false
}

// notifyCallbacks invokes all registered callbacks with current data.
// Makes copies of data while holding read lock, then calls callbacks without lock.
func (t *Tracker) notifyCallbacks() {
	// Copy data while holding read lock
	t.mu.RLock()
	samplesCopy := make([]sample.Sample, len(t.samples))
	copy(samplesCopy, t.samples)
	envelopeCopy := make([]float64, len(t.envelope))
	copy(envelopeCopy, t.envelope)
	hitsCopy := make([]Hit, len(t.hits))
	copy(hitsCopy, t.hits)
	bpm := t.bpmLocked()
	t.mu.RUnlock()

	// Get callbacks (need read lock for callbacks slice)
	t.cbMu.RLock()
	callbacks := make([]func(samples []sample.Sample, envelope []float64, hits []Hit, bpm float64), len(t.callbacks))
	copy(callbacks, t.callbacks)
	t.cbMu.RUnlock()

	// Invoke callbacks without holding any locks
	for _, cb := range callbacks {
		if cb != nil {
			cb(samplesCopy, envelopeCopy, hitsCopy, bpm)
		}
	}
}
