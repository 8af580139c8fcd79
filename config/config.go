package config

import (
	// Local Packages
	errors "waypay/errors"
)

var DefaultConfig = []byte(`
application: "waypay"

logger:
  level: "debug"

is_prod_mode: false

gateway:
  base_url: "http://localhost:8080/api"
  api_key: ""
  timeout_seconds: 30

poller:
  interval_seconds: 3
  max_attempts: 20

session:
  success_close_seconds: 3
  cancel_close_seconds: 2

mongo:
  uri: "mongodb://localhost:27017"
  enabled: true

redis:
  uri: "localhost:6379"
  password: ""

kafka:
  brokers:
    - "localhost:9092"
  enabled: true
  topic: "confirmed-payments"
  client_name: "waypay-producer"
`)

type Config struct {
	Application string  `koanf:"application"`
	Logger      Logger  `koanf:"logger"`
	IsProdMode  bool    `koanf:"is_prod_mode"`
	Gateway     Gateway `koanf:"gateway"`
	Poller      Poller  `koanf:"poller"`
	Session     Session `koanf:"session"`
	Mongo       Mongo   `koanf:"mongo"`
	Redis       Redis   `koanf:"redis"`
	Kafka       Kafka   `koanf:"kafka"`
}

type Logger struct {
	Level string `koanf:"level"`
}

type Gateway struct {
	BaseURL        string `koanf:"base_url"`
	APIKey         string `koanf:"api_key"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
}

type Poller struct {
	IntervalSeconds int `koanf:"interval_seconds"`
	MaxAttempts     int `koanf:"max_attempts"`
}

type Session struct {
	SuccessCloseSeconds int `koanf:"success_close_seconds"`
	CancelCloseSeconds  int `koanf:"cancel_close_seconds"`
}

type Mongo struct {
	URI     string `koanf:"uri"`
	Enabled bool   `koanf:"enabled"`
}

type Redis struct {
	URI      string `koanf:"uri"`
	Password string `koanf:"password"`
}

type Kafka struct {
	Brokers    []string `koanf:"brokers"`
	Enabled    bool     `koanf:"enabled"`
	Topic      string   `koanf:"topic"`
	ClientName string   `koanf:"client_name"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	ve := errors.ValidationErrs()

	if c.Application == "" {
		ve.Add("application", "cannot be empty")
	}
	if c.Logger.Level == "" {
		ve.Add("logger.level", "cannot be empty")
	}
	if c.Gateway.BaseURL == "" {
		ve.Add("gateway.base_url", "cannot be empty")
	}
	if c.Gateway.TimeoutSeconds <= 0 {
		ve.Add("gateway.timeout_seconds", "must be positive")
	}
	if c.Poller.IntervalSeconds <= 0 {
		ve.Add("poller.interval_seconds", "must be positive")
	}
	if c.Poller.MaxAttempts <= 0 {
		ve.Add("poller.max_attempts", "must be positive")
	}
	if c.Redis.URI == "" {
		ve.Add("redis.uri", "cannot be empty")
	}
	if c.Mongo.Enabled && c.Mongo.URI == "" {
		ve.Add("mongo.uri", "cannot be empty when mongo is enabled")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			ve.Add("kafka.brokers", "cannot be empty when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			ve.Add("kafka.topic", "cannot be empty when kafka is enabled")
		}
	}

	return ve.Err()
}
