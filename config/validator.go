package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"gifscreen/transcoder"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Validate checks the configuration and fills in defaults
func Validate(cfg *Config) error {
	if cfg.InstanceID == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "gifscreen"
		}
		cfg.InstanceID = sanitizeID(host)
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	if cfg.Listen == "" {
		cfg.Listen = ":5000"
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return err
	}

	if cfg.FetchTimeout < 0 {
		return fmt.Errorf("fetch_timeout must be >= 0")
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = transcoder.DefaultFetchTimeout
	}

	if cfg.MaxSourceBytes < 0 {
		return fmt.Errorf("max_source_bytes must be >= 0")
	}
	if cfg.MaxSourceBytes == 0 {
		cfg.MaxSourceBytes = transcoder.DefaultMaxSourceBytes
	}

	if cfg.DefaultMode != transcoder.FitModeFill && cfg.DefaultMode != transcoder.FitModeFit {
		return fmt.Errorf("default_mode must be fill or fit")
	}

	if cfg.Discovery.ServiceName == "" {
		cfg.Discovery.ServiceName = "_gifscreen._tcp"
	}
	if cfg.Discovery.Domain == "" {
		cfg.Discovery.Domain = "local."
	}

	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.Topic == "" {
			cfg.MQTT.Topic = fmt.Sprintf("gifscreen/%s/version", cfg.InstanceID)
		}
		if cfg.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
		}
	}

	return nil
}

// ParseLevel maps a config log level to slog.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("log_level %q: %w", s, err)
	}
	return level, nil
}

func sanitizeID(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
