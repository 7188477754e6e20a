package piezo

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/itohio/godrum/pkg/config"
)

// Mock simulates a piezo sensor for testing and development.
// It produces idle noise with periodic exponentially decaying strike
// transients, mimicking a drum pad being hit at a steady tempo.
type Mock struct {
	cfg *config.MockConfig

	samples   chan RawSample
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	// Simulation state
	startTime  time.Time
	lastStrike time.Time
}

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.MockConfig{
			Noise:        0.02,
			StrikePeak:   0.8,
			StrikeDecay:  80 * time.Millisecond,
			StrikePeriod: 500 * time.Millisecond,
			SampleRate:   10 * time.Millisecond,
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:       cfg,
		samples:   make(chan RawSample, DefaultBufferSize),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
	}
}

// Connect simulates connecting to the device.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.startTime = time.Now()
	m.lastStrike = m.startTime

	// Start generating samples
	go m.generateSamples()

	return nil
}

// Close stops the mocked device.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.connected = false
	close(m.samples)

	return nil
}

// Samples returns the channel for reading samples.
func (m *Mock) Samples() <-chan RawSample {
	return m.samples
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// generateSamples generates simulated samples.
func (m *Mock) generateSamples() {
	ticker := time.NewTicker(m.cfg.SampleRate)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			sample := m.generateSample()
			select {
			case m.samples <- sample:
			case <-m.ctx.Done():
				return
			default:
				// Channel full, skip
			}
		}
	}
}

// generateSample generates a single simulated sample.
func (m *Mock) generateSample() RawSample {
	m.mu.RLock()
	now := time.Now()
	elapsed := now.Sub(m.startTime)
	strikeElapsed := now.Sub(m.lastStrike)
	m.mu.RUnlock()

	// Start a new strike once the period has elapsed
	if strikeElapsed >= m.cfg.StrikePeriod {
		m.mu.Lock()
		m.lastStrike = now
		m.mu.Unlock()
		strikeElapsed = 0
	}

	// Strike transient: peak at strike time, exponential decay afterwards
	level := 0.0
	if m.cfg.StrikeDecay > 0 {
		level = m.cfg.StrikePeak * math.Exp(-strikeElapsed.Seconds()/m.cfg.StrikeDecay.Seconds())
	}

	// Add noise
	noise := (math.Sin(float64(elapsed.Nanoseconds())*0.001) +
		math.Cos(float64(elapsed.Nanoseconds())*0.0013)) *
		m.cfg.Noise * 0.5
	level += noise

	return RawSample{
		Timestamp: now,
		Value:     levelToADC(level),
	}
}

// levelToADC converts a normalized level (0-1) to a 10-bit ADC value, clamped
// to the valid range.
func levelToADC(level float64) uint16 {
	val := level * MaxValue
	if val < 0 {
		val = 0
	} else if val > MaxValue {
		val = MaxValue
	}
	return uint16(val)
}
