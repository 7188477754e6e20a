package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, 1023, cfg.Sensor.FullScale)
	assert.Equal(t, 0, cfg.Sensor.AverageSamples)
	assert.Equal(t, float64(10), cfg.Beat.WindowSeconds)
	assert.Equal(t, float64(0.2), cfg.Beat.HitThreshold)
	assert.Equal(t, float64(0.15), cfg.Beat.MinHitGap)
	assert.Equal(t, float64(0.05), cfg.Beat.EnvelopeDecay)
	assert.Equal(t, 500*time.Millisecond, cfg.Mock.StrikePeriod)
	assert.Equal(t, 10*time.Millisecond, cfg.Mock.SampleRate)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Server)
	assert.Equal(t, "drum/vibration", cfg.MQTT.Topic)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
  baud_rate: 115200

sensor:
  full_scale: 4095
  average_samples: 4

beat:
  window_seconds: 5
  hit_threshold: 0.3
  min_hit_gap: 0.1

mock:
  noise: 0.01
  strike_peak: 0.9
  strike_decay: 50ms
  strike_period: 400ms
  sample_rate: 5ms
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 4095, cfg.Sensor.FullScale)
	assert.Equal(t, 4, cfg.Sensor.AverageSamples)
	assert.Equal(t, float64(5), cfg.Beat.WindowSeconds)
	assert.Equal(t, float64(0.3), cfg.Beat.HitThreshold)
	assert.Equal(t, float64(0.1), cfg.Beat.MinHitGap)
	assert.Equal(t, 50*time.Millisecond, cfg.Mock.StrikeDecay)
	assert.Equal(t, 400*time.Millisecond, cfg.Mock.StrikePeriod)
	assert.Equal(t, 5*time.Millisecond, cfg.Mock.SampleRate)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)               // default
	assert.Equal(t, 1023, cfg.Sensor.FullScale)              // default
	assert.Equal(t, float64(10), cfg.Beat.WindowSeconds)     // default
	assert.Equal(t, 10*time.Millisecond, cfg.Mock.SampleRate) // default
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Beat.WindowSeconds = 15

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	// Load it back and verify
	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, float64(15), loaded.Beat.WindowSeconds)
}
