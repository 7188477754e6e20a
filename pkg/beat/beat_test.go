package beat

import (
	"testing"
	"time"

	"github.com/itohio/godrum/pkg/config"
	"github.com/itohio/godrum/pkg/sample"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	cfg := config.Default()
	tr := New(cfg)

	assert.NotNil(t, tr)
	assert.Equal(t, 0, len(tr.Samples()))
	assert.Equal(t, 0, len(tr.Envelope()))
	assert.Equal(t, 0, len(tr.Hits()))
	assert.Equal(t, float64(0), tr.BPM())
}

func TestProcessSample_Basic(t *testing.T) {
	cfg := config.Default()
	tr := New(cfg)

	now := time.Now()
	s := sample.Sample{
		Timestamp: now,
		Level:     0.05,
	}

	tr.processSample(s)

	samples := tr.Samples()
	assert.Len(t, samples, 1)
	assert.Equal(t, s, samples[0])
	assert.Len(t, tr.Envelope(), 1)
	assert.Len(t, tr.Hits(), 0) // Below threshold, no hit
}

func TestProcessSample_WindowRemoval(t *testing.T) {
	cfg := config.Default()
	cfg.Beat.WindowSeconds = 1.0 // 1 second window
	tr := New(cfg)

	now := time.Now()
	s1 := sample.Sample{Timestamp: now, Level: 0.05}
	s2 := sample.Sample{Timestamp: now.Add(500 * time.Millisecond), Level: 0.06}
	s3 := sample.Sample{Timestamp: now.Add(1500 * time.Millisecond), Level: 0.07} // Outside window

	tr.processSample(s1)
	tr.processSample(s2)
	tr.processSample(s3)

	samples := tr.Samples()
	// s1 should be removed (outside window from s3's perspective)
	assert.LessOrEqual(t, len(samples), 2)
}

func TestProcessSample_HitDetection(t *testing.T) {
	cfg := config.Default()
	cfg.Beat.HitThreshold = 0.2
	tr := New(cfg)

	now := time.Now()
	dt := 10 * time.Millisecond

	// Idle, strike transient, decay back to idle
	samples := []sample.Sample{
		{Timestamp: now, Level: 0.02},
		{Timestamp: now.Add(dt), Level: 0.03},
		{Timestamp: now.Add(2 * dt), Level: 0.85}, // Strike
		{Timestamp: now.Add(3 * dt), Level: 0.60},
		{Timestamp: now.Add(4 * dt), Level: 0.35},
		{Timestamp: now.Add(5 * dt), Level: 0.12}, // Back below threshold
		{Timestamp: now.Add(6 * dt), Level: 0.04},
	}

	for _, s := range samples {
		tr.processSample(s)
	}

	hits := tr.Hits()
	assert.Len(t, hits, 1, "Should detect exactly one hit")

	hit := hits[0]
	assert.Equal(t, 2, hit.StartIndex)
	assert.Equal(t, 4, hit.EndIndex)
	assert.InDelta(t, 0.85, hit.Peak, 0.001)
	assert.Equal(t, samples[2].Timestamp, hit.StartTime)
	assert.Equal(t, samples[4].Timestamp, hit.EndTime)
}

func TestProcessSample_RingingFoldedIntoHit(t *testing.T) {
	cfg := config.Default()
	cfg.Beat.HitThreshold = 0.2
	cfg.Beat.MinHitGap = 0.15
	tr := New(cfg)

	now := time.Now()
	dt := 10 * time.Millisecond

	// One strike whose ringing re-crosses the threshold within the gap
	samples := []sample.Sample{
		{Timestamp: now, Level: 0.8},              // Strike
		{Timestamp: now.Add(dt), Level: 0.15},     // Dips below threshold
		{Timestamp: now.Add(2 * dt), Level: 0.45}, // Ringing re-crossing (within 150ms gap)
		{Timestamp: now.Add(3 * dt), Level: 0.1},
	}

	for _, s := range samples {
		tr.processSample(s)
	}

	hits := tr.Hits()
	assert.Len(t, hits, 1, "Ringing within the gap should fold into one hit")
	assert.Equal(t, 2, hits[0].EndIndex)
	assert.InDelta(t, 0.8, hits[0].Peak, 0.001)
}

func TestProcessSample_SeparateHitsBeyondGap(t *testing.T) {
	cfg := config.Default()
	cfg.Beat.HitThreshold = 0.2
	cfg.Beat.MinHitGap = 0.15
	tr := New(cfg)

	now := time.Now()

	samples := []sample.Sample{
		{Timestamp: now, Level: 0.8}, // First strike
		{Timestamp: now.Add(10 * time.Millisecond), Level: 0.05},
		{Timestamp: now.Add(500 * time.Millisecond), Level: 0.7}, // Second strike, well past gap
		{Timestamp: now.Add(510 * time.Millisecond), Level: 0.05},
	}

	for _, s := range samples {
		tr.processSample(s)
	}

	hits := tr.Hits()
	assert.Len(t, hits, 2, "Strikes beyond the gap should count separately")
}

func TestBPM_SteadyTempo(t *testing.T) {
	cfg := config.Default()
	cfg.Beat.HitThreshold = 0.2
	tr := New(cfg)

	now := time.Now()
	beatInterval := 500 * time.Millisecond // 120 BPM

	// Four strikes at a steady 120 BPM, idle samples in between
	for i := 0; i < 4; i++ {
		strikeAt := now.Add(time.Duration(i) * beatInterval)
		tr.processSample(sample.Sample{Timestamp: strikeAt, Level: 0.8})
		tr.processSample(sample.Sample{Timestamp: strikeAt.Add(10 * time.Millisecond), Level: 0.05})
		tr.processSample(sample.Sample{Timestamp: strikeAt.Add(250 * time.Millisecond), Level: 0.03})
	}

	assert.Len(t, tr.Hits(), 4)
	assert.InDelta(t, 120.0, tr.BPM(), 1.0)
}

func TestBPM_TooFewHits(t *testing.T) {
	cfg := config.Default()
	tr := New(cfg)

	now := time.Now()
	tr.processSample(sample.Sample{Timestamp: now, Level: 0.8})

	assert.Len(t, tr.Hits(), 1)
	assert.Equal(t, float64(0), tr.BPM(), "BPM needs at least two hits")
}

func TestOnUpdate_CallbackReceivesData(t *testing.T) {
	cfg := config.Default()
	cfg.Beat.HitThreshold = 0.2
	tr := New(cfg)

	var gotSamples []sample.Sample
	var gotEnvelope []float64
	var gotHits []Hit
	callbackCalled := false

	tr.OnUpdate(func(samples []sample.Sample, envelope []float64, hits []Hit, bpm float64) {
		gotSamples = samples
		gotEnvelope = envelope
		gotHits = hits
		callbackCalled = true
	})

	now := time.Now()
	tr.processSample(sample.Sample{Timestamp: now, Level: 0.8})

	assert.True(t, callbackCalled)
	assert.Len(t, gotSamples, 1)
	assert.Len(t, gotEnvelope, 1)
	assert.Len(t, gotHits, 1)
}

func TestProcessSamples_Channel(t *testing.T) {
	cfg := config.Default()
	tr := New(cfg)

	input := make(chan sample.Sample, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		tr.ProcessSamples(input)
	}()

	now := time.Now()
	input <- sample.Sample{Timestamp: now, Level: 0.05}
	input <- sample.Sample{Timestamp: now.Add(10 * time.Millisecond), Level: 0.06}
	close(input)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ProcessSamples did not finish within timeout")
	}

	assert.Len(t, tr.Samples(), 2)
}
