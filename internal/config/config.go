package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/example/flipbook/internal/cartoon"
)

type MQTT struct {
	Broker   string `yaml:"broker"`    // e.g. tcp://localhost:1883
	ClientID string `yaml:"client_id"` //
	Topic    string `yaml:"topic"`     // base topic; cartoon name is appended
}

// CartoonDef binds one cartoon configuration to an output surface.
type CartoonDef struct {
	Screen  string         `yaml:"screen"` // sim | spi | mqtt | ws
	Sheet   string         `yaml:"sheet,omitempty"`
	Play    bool           `yaml:"play"` // start playing on boot
	Cartoon cartoon.Config `yaml:"cartoon"`
}

type Config struct {
	Addr     string                `yaml:"addr"`
	SPIHz    int                   `yaml:"spi_hz,omitempty"`
	MQTT     MQTT                  `yaml:"mqtt,omitempty"`
	Cartoons map[string]CartoonDef `yaml:"cartoons"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
