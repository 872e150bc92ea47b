package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	CyberGuard CyberGuardConfig `yaml:"cyberguard"`
}

// CyberGuardConfig is the project configuration.
type CyberGuardConfig struct {
	Store     StoreConfig     `yaml:"store"`
	Hub       HubConfig       `yaml:"hub"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Generator GeneratorConfig `yaml:"generator"`
	Intake    IntakeConfig    `yaml:"intake"`
	Rules     RulesConfig     `yaml:"rules"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StoreConfig controls threat persistence.
type StoreConfig struct {
	Backend        string        `yaml:"backend"` // mongo|redis|memory
	CommitTimeout  time.Duration `yaml:"commit_timeout"`
	MemoryCapacity int           `yaml:"memory_capacity"`
	Mongo          MongoConfig   `yaml:"mongo"`
	Redis          RedisConfig   `yaml:"redis"`
}

// MongoConfig controls the MongoDB backend.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// RedisConfig controls Redis access.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// HubConfig controls the live broadcast hub.
type HubConfig struct {
	SubscriberBuffer int `yaml:"subscriber_buffer"`
}

// AlertsConfig controls email alert dispatch.
type AlertsConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MinSeverity string        `yaml:"min_severity"`
	Transport   string        `yaml:"transport"` // smtp|resend
	QueueSize   int           `yaml:"queue_size"`
	SendTimeout time.Duration `yaml:"send_timeout"`
	Recipient   string        `yaml:"recipient"`
	SMTP        SMTPConfig    `yaml:"smtp"`
	Resend      ResendConfig  `yaml:"resend"`
}

// SMTPConfig holds SMTP transport credentials.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// ResendConfig holds Resend API transport credentials.
type ResendConfig struct {
	APIKey string `yaml:"api_key"`
	From   string `yaml:"from"`
}

// GeneratorConfig controls the background threat generator.
type GeneratorConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MinInterval time.Duration `yaml:"min_interval"`
	MaxInterval time.Duration `yaml:"max_interval"`
}

// IntakeConfig controls the raw-signal Redis intake queue.
type IntakeConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Redis        RedisConfig   `yaml:"redis"`
	Key          string        `yaml:"key"`
	BlockTimeout time.Duration `yaml:"block_timeout"`
}

// RulesConfig controls detection-rule tagging.
type RulesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
