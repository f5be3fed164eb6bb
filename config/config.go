// Package config parses the YAML deployment document for a bridge
// process (C14): which behaviors it may spawn on request, where it
// listens, and which optional transports (MQTT, Kinesis) it wires in.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level deployment document.
type Config struct {
	// ListenAddr is where the HTTP bridge listens, e.g. ":8080".
	ListenAddr string `yaml:"listen_addr"`

	// BaseURL is this bridge's externally-reachable address, used to
	// mint absolute addresses for actors it exposes.
	BaseURL string `yaml:"base_url"`

	// Behaviors whitelists the names PUT is allowed to spawn; the
	// process wires each name to a compiled-in actor.Behavior at
	// startup, never to caller-supplied code.
	Behaviors []string `yaml:"behaviors"`

	MQTT    *MQTTConfig    `yaml:"mqtt,omitempty"`
	Kinesis *KinesisConfig `yaml:"kinesis,omitempty"`
}

// MQTTConfig configures the optional MQTT ingest/egress transport.
type MQTTConfig struct {
	BrokerURL string   `yaml:"broker_url"`
	ClientID  string   `yaml:"client_id"`
	Topics    []string `yaml:"topics"`
}

// KinesisConfig configures the optional Kinesis ingest transport.
type KinesisConfig struct {
	StreamName string `yaml:"stream_name"`
	Target     string `yaml:"target"` // actor id to cast decoded records to
}

// Load reads and validates a Config from path.
func Load(path string) (*Config, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(bs, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.ListenAddr == "" {
		return nil, fmt.Errorf("config %s: listen_addr is required", path)
	}
	if cfg.MQTT != nil && cfg.MQTT.BrokerURL == "" {
		return nil, fmt.Errorf("config %s: mqtt.broker_url is required when mqtt is configured", path)
	}
	if cfg.Kinesis != nil && (cfg.Kinesis.StreamName == "" || cfg.Kinesis.Target == "") {
		return nil, fmt.Errorf("config %s: kinesis.stream_name and kinesis.target are required when kinesis is configured", path)
	}
	return &cfg, nil
}
