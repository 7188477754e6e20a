package sample

import (
	"log"
	"time"

	"github.com/itohio/godrum/pkg/config"
	"github.com/itohio/godrum/pkg/piezo"
)

// NewAveragingConverter creates a converter that averages N consecutive RawSamples
// and converts them to Samples. This reduces noise in the readings at the cost of
// smearing fast strike transients, so keep the window small for drum work.
func NewAveragingConverter(cfg *config.Config, windowSize int, bufSize int) Converter {
	if windowSize <= 0 {
		windowSize = 1 // No averaging if invalid
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan piezo.RawSample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			var buffer []piezo.RawSample
			ticker := time.NewTicker(100 * time.Millisecond) // Output rate
			defer ticker.Stop()

			for {
				select {
				case raw, ok := <-in:
					if !ok {
						// Input closed, output any remaining samples
						if len(buffer) > 0 {
							select {
							case out <- averageAndConvertSamples(buffer, cfg):
							default:
							}
						}
						return
					}

					buffer = append(buffer, raw)
					if len(buffer) > windowSize {
						buffer = buffer[1:] // Remove oldest
					}

				case <-ticker.C:
					// Output averaged sample periodically
					if len(buffer) > 0 {
						select {
						case out <- averageAndConvertSamples(buffer, cfg):
						default:
							log.Printf("Averaging converter output channel full")
						}
					}
				}
			}
		}()

		return out
	}
}

// averageAndConvertSamples averages a slice of RawSamples and converts to Sample.
// Uses the most recent sample's timestamp.
func averageAndConvertSamples(samples []piezo.RawSample, cfg *config.Config) Sample {
	if len(samples) == 0 {
		return Sample{}
	}

	var sum uint32
	lastSample := samples[len(samples)-1]

	for _, s := range samples {
		sum += uint32(s.Value)
	}

	n := float64(len(samples))
	avgADC := uint16((float64(sum) / n) + 0.5) // Round to nearest

	// Create averaged RawSample and convert
	avgRaw := piezo.RawSample{
		Timestamp: lastSample.Timestamp,
		Value:     avgADC,
	}

	return convertSample(avgRaw, cfg)
}

// NewAveragingConverterForSamples creates an averaging converter that works on already-converted Samples.
// This is useful when you want to average after conversion.
func NewAveragingConverterForSamples(windowSize int, bufSize int) func(in <-chan Sample) <-chan Sample {
	if windowSize <= 0 {
		windowSize = 1
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan Sample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			var buffer []Sample
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()

			for {
				select {
				case sample, ok := <-in:
					if !ok {
						if len(buffer) > 0 {
							avg := averageConvertedSamples(buffer)
							select {
							case out <- avg:
							default:
							}
						}
						return
					}

					buffer = append(buffer, sample)
					if len(buffer) > windowSize {
						buffer = buffer[1:]
					}

				case <-ticker.C:
					if len(buffer) > 0 {
						avg := averageConvertedSamples(buffer)
						select {
						case out <- avg:
						default:
							log.Printf("Averaging converter output channel full")
						}
					}
				}
			}
		}()

		return out
	}
}

// averageConvertedSamples averages a slice of converted Samples.
func averageConvertedSamples(samples []Sample) Sample {
	if len(samples) == 0 {
		return Sample{}
	}

	var sumLevel float64
	lastSample := samples[len(samples)-1]

	for _, s := range samples {
		sumLevel += s.Level
	}

	n := float64(len(samples))
	return Sample{
		Timestamp: lastSample.Timestamp,
		Level:     sumLevel / n,
	}
}
