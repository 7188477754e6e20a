package sample

import (
	"log"
	"time"

	"github.com/itohio/godrum/pkg/config"
	"github.com/itohio/godrum/pkg/piezo"
)

// Sample represents a processed sensor sample with a normalized level.
type Sample struct {
	Timestamp time.Time
	Level     float64 // Normalized sensor excitation (0-1, full ADC scale = 1)
}

// Converter is a function type that converts RawSample channel to Sample channel.
type Converter func(in <-chan piezo.RawSample) <-chan Sample

// NewConverter creates a converter function that transforms RawSample to Sample.
func NewConverter(cfg *config.Config, bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan piezo.RawSample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			for raw := range in {
				select {
				case out <- convertSample(raw, cfg):
				case <-time.After(time.Second):
					log.Printf("Converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// convertSample converts a RawSample to Sample using configuration.
func convertSample(raw piezo.RawSample, cfg *config.Config) Sample {
	return Sample{
		Timestamp: raw.Timestamp,
		Level:     adcToLevel(raw.Value, cfg.Sensor.FullScale),
	}
}

// adcToLevel converts a raw ADC reading to a normalized 0-1 level.
func adcToLevel(adc uint16, fullScale int) float64 {
	if fullScale <= 0 {
		fullScale = piezo.MaxValue
	}
	return float64(adc) / float64(fullScale)
}
