package sample

import (
	"testing"
	"time"

	"github.com/itohio/godrum/pkg/config"
	"github.com/itohio/godrum/pkg/piezo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestADCToLevel(t *testing.T) {
	tests := []struct {
		name      string
		adc       uint16
		fullScale int
		want      float64
	}{
		{
			name:      "zero ADC",
			adc:       0,
			fullScale: 1023,
			want:      0.0,
		},
		{
			name:      "max ADC",
			adc:       1023,
			fullScale: 1023,
			want:      1.0,
		},
		{
			name:      "half ADC",
			adc:       511,
			fullScale: 1023,
			want:      0.5, // Approximately
		},
		{
			name:      "quarter ADC",
			adc:       256,
			fullScale: 1023,
			want:      0.25, // Approximately
		},
		{
			name:      "different full scale",
			adc:       2047,
			fullScale: 4095,
			want:      0.5, // Approximately
		},
		{
			name:      "invalid full scale falls back to 10-bit",
			adc:       1023,
			fullScale: 0,
			want:      1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adcToLevel(tt.adc, tt.fullScale)
			assert.InDelta(t, tt.want, got, 0.01, "adcToLevel(%d, %d) = %f, want %f", tt.adc, tt.fullScale, got, tt.want)
		})
	}
}

func TestConvertSample(t *testing.T) {
	cfg := config.Default()
	now := time.Now()

	raw := piezo.RawSample{
		Timestamp: now,
		Value:     512,
	}

	s := convertSample(raw, cfg)
	assert.Equal(t, now, s.Timestamp)
	assert.InDelta(t, 0.5, s.Level, 0.01)
}

func TestNewConverter(t *testing.T) {
	cfg := config.Default()
	converter := NewConverter(cfg, 10)

	input := make(chan piezo.RawSample, 10)
	output := converter(input)

	now := time.Now()
	input <- piezo.RawSample{Timestamp: now, Value: 0}
	input <- piezo.RawSample{Timestamp: now.Add(10 * time.Millisecond), Value: 1023}
	close(input)

	var results []Sample
	for s := range output {
		results = append(results, s)
	}

	require.Len(t, results, 2)
	assert.InDelta(t, 0.0, results[0].Level, 0.001)
	assert.InDelta(t, 1.0, results[1].Level, 0.001)
	assert.Equal(t, now, results[0].Timestamp)
}

func TestNewConverter_InvalidBufSize(t *testing.T) {
	cfg := config.Default()
	converter := NewConverter(cfg, -1)
	assert.NotNil(t, converter)

	input := make(chan piezo.RawSample)
	output := converter(input)
	assert.NotNil(t, output)
	close(input)
}
