package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr         string `yaml:"addr"`
	ReadTimeout  string `yaml:"readTimeout"`
	WriteTimeout string `yaml:"writeTimeout"`
	IdleTimeout  string `yaml:"idleTimeout"`
}

type WS struct {
	PingInterval string `yaml:"pingInterval"`
	ReadLimit    int64  `yaml:"readLimit"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // collab-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	WS      WS      `yaml:"ws"`
	Logging Logging `yaml:"logging"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	// установка дефолтов, если значения не указаны
	if c.Logging.Service == "" {
		c.Logging.Service = "collab-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	return nil
}

func (c *HTTP) ReadTimeoutOr(def time.Duration) time.Duration {
	return parseDurationOr(def, c.ReadTimeout)
}

func (c *HTTP) WriteTimeoutOr(def time.Duration) time.Duration {
	return parseDurationOr(def, c.WriteTimeout)
}

func (c *HTTP) IdleTimeoutOr(def time.Duration) time.Duration {
	return parseDurationOr(def, c.IdleTimeout)
}

func (c *WS) PingIntervalOr(def time.Duration) time.Duration {
	return parseDurationOr(def, c.PingInterval)
}

// helper для парсинга timeout-ов
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
