package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"gifscreen/transcoder"
)

// Config represents the complete gifscreen configuration
type Config struct {
	InstanceID     string             `yaml:"instance_id"`
	Listen         string             `yaml:"listen"`
	LogLevel       string             `yaml:"log_level"` // debug, info, warn, error
	FetchTimeout   time.Duration      `yaml:"fetch_timeout"`
	MaxSourceBytes int64              `yaml:"max_source_bytes"`
	DefaultMode    transcoder.FitMode `yaml:"default_mode"` // fill or fit
	Discovery      DiscoveryConfig    `yaml:"discovery"`
	MQTT           MQTTConfig         `yaml:"mqtt"`
}

// DiscoveryConfig controls the mDNS advertisement
type DiscoveryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Domain      string `yaml:"domain"`
}

// MQTTConfig contains the optional version notifier settings. An empty
// broker disables it.
type MQTTConfig struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"`
	QoS    byte   `yaml:"qos"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{
		Discovery: DiscoveryConfig{Enabled: true},
	}
	if err := Validate(cfg); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Config{
		Discovery: DiscoveryConfig{Enabled: true},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
