package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial SerialConfig `yaml:"serial"`
	Sensor SensorConfig `yaml:"sensor"`
	Beat   BeatConfig   `yaml:"beat"`
	Mock   MockConfig   `yaml:"mock"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// SensorConfig contains sensor scaling parameters.
type SensorConfig struct {
	FullScale      int `yaml:"full_scale"`      // Maximum raw reading (10-bit ADC = 1023)
	AverageSamples int `yaml:"average_samples"` // Number of samples to average (0 = disabled, default)
}

// BeatConfig contains hit detection parameters.
type BeatConfig struct {
	WindowSeconds float64 `yaml:"window_seconds"`
	HitThreshold  float64 `yaml:"hit_threshold"`  // Normalized level above which a strike starts
	MinHitGap     float64 `yaml:"min_hit_gap"`    // Minimum gap between distinct hits in seconds (folds piezo ringing)
	EnvelopeDecay float64 `yaml:"envelope_decay"` // Peak-follower envelope decay time constant in seconds
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	Noise        float64       `yaml:"noise"`         // Idle noise level (normalized, 0-1)
	StrikePeak   float64       `yaml:"strike_peak"`   // Peak level of a simulated strike (normalized, 0-1)
	StrikeDecay  time.Duration `yaml:"strike_decay"`  // Exponential decay time of a strike
	StrikePeriod time.Duration `yaml:"strike_period"` // Time between simulated strikes
	SampleRate   time.Duration `yaml:"sample_rate"`   // Sample rate
}

// MQTTConfig contains MQTT publishing configuration.
type MQTTConfig struct {
	Server   string `yaml:"server"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			BaudRate: 9600,
		},
		Sensor: SensorConfig{
			FullScale:      1023,
			AverageSamples: 0, // No averaging by default
		},
		Beat: BeatConfig{
			WindowSeconds: 10,
			HitThreshold:  0.2,
			MinHitGap:     0.15, // Fold ringing within 150ms into one hit
			EnvelopeDecay: 0.05,
		},
		Mock: MockConfig{
			Noise:        0.02,
			StrikePeak:   0.8,
			StrikeDecay:  80 * time.Millisecond,
			StrikePeriod: 500 * time.Millisecond, // 120 BPM
			SampleRate:   10 * time.Millisecond,  // 100 samples per second
		},
		MQTT: MQTTConfig{
			Server:   "tcp://localhost:1883",
			ClientID: "godrum",
			Topic:    "drum/vibration",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Sensor.FullScale == 0 {
		c.Sensor.FullScale = def.Sensor.FullScale
	}

	if c.Beat.WindowSeconds == 0 {
		c.Beat.WindowSeconds = def.Beat.WindowSeconds
	}
	if c.Beat.HitThreshold == 0 {
		c.Beat.HitThreshold = def.Beat.HitThreshold
	}
	if c.Beat.MinHitGap == 0 {
		c.Beat.MinHitGap = def.Beat.MinHitGap
	}
	if c.Beat.EnvelopeDecay == 0 {
		c.Beat.EnvelopeDecay = def.Beat.EnvelopeDecay
	}

	if c.Mock.Noise == 0 {
		c.Mock.Noise = def.Mock.Noise
	}
	if c.Mock.StrikePeak == 0 {
		c.Mock.StrikePeak = def.Mock.StrikePeak
	}
	if c.Mock.StrikeDecay == 0 {
		c.Mock.StrikeDecay = def.Mock.StrikeDecay
	}
	if c.Mock.StrikePeriod == 0 {
		c.Mock.StrikePeriod = def.Mock.StrikePeriod
	}
	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}

	if c.MQTT.Server == "" {
		c.MQTT.Server = def.MQTT.Server
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = def.MQTT.Topic
	}
}
