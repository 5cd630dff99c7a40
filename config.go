package fedkit

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml"
)

const (
	DefBackendURL = "http://localhost:9099"
	DefTimeout    = 30 * time.Second
)

// Config is the CLI configuration file.
type Config struct {
	Backend BackendConfig `toml:"backend"`
	MQTT    MQTTConfig    `toml:"mqtt"`
}

type BackendConfig struct {
	URL             string        `toml:"url"`
	TLSVerification bool          `toml:"tls_verification"`
	Timeout         time.Duration `toml:"timeout"`
}

type MQTTConfig struct {
	Address     string        `toml:"address"`
	QoS         uint8         `toml:"qos"`
	Timeout     time.Duration `toml:"timeout"`
	Username    string        `toml:"username"`
	Password    string        `toml:"password"`
	TopicPrefix string        `toml:"topic_prefix"`
}

func DefaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			URL:     DefBackendURL,
			Timeout: DefTimeout,
		},
		MQTT: MQTTConfig{
			Address:     "tcp://localhost:1883",
			QoS:         1,
			Timeout:     DefTimeout,
			TopicPrefix: "fedkit",
		},
	}
}

// LoadConfig reads the file at path. Unset keys, or a missing file, fall
// back to DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return DefaultConfig(), nil
	case err != nil:
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("error parsing config file: %w", err)
	}

	var cfg Config
	if err := tree.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Backend.URL == "" {
		c.Backend.URL = def.Backend.URL
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = def.Backend.Timeout
	}
	if c.MQTT.Address == "" {
		c.MQTT.Address = def.MQTT.Address
	}
	if c.MQTT.QoS == 0 {
		c.MQTT.QoS = def.MQTT.QoS
	}
	if c.MQTT.Timeout == 0 {
		c.MQTT.Timeout = def.MQTT.Timeout
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = def.MQTT.TopicPrefix
	}

	return c
}
