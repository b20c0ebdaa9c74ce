package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8000" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
		RateLimit       struct {
			Rate     int           `yaml:"rate" default:"10"`
			Interval time.Duration `yaml:"interval" default:"1s"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Log struct {
		Level          string        `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format         string        `yaml:"format" default:"json" validate:"oneof=json console"`
		Output         string        `yaml:"output" default:"stdout"`
		CollectorTopic string        `yaml:"collector_topic"`
		FlushInterval  time.Duration `yaml:"flush_interval" default:"30s"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Governance struct {
		CycleInterval             time.Duration `yaml:"cycle_interval" default:"2s" validate:"gt=0"`
		LogWindow                 int           `yaml:"log_window" default:"20" validate:"gt=0"`
		MeanReversionProbability  float64       `yaml:"mean_reversion_probability" default:"0.05" validate:"gte=0,lte=1"`
		CorrelationSpikeThreshold float64       `yaml:"correlation_spike_threshold" default:"0.8" validate:"gte=0,lte=1"`
		InitialMetrics            struct {
			Drawdown          float64 `yaml:"drawdown" default:"0.42" validate:"gte=0"`
			CorrelationStress float64 `yaml:"correlation_stress" default:"0.08" validate:"gte=0,lte=1"`
			Exposure          float64 `yaml:"exposure" default:"12.5"`
		} `yaml:"initial_metrics"`
	} `yaml:"governance"`
	Scanner struct {
		Source string `yaml:"source" default:"mock" validate:"oneof=mock sheets clickhouse"`
		Seed   int64  `yaml:"seed"`
	} `yaml:"scanner"`
	Sheets struct {
		BaseURL       string        `yaml:"base_url" default:"https://sheets.googleapis.com/v4/spreadsheets"`
		SpreadsheetID string        `yaml:"spreadsheet_id"`
		APIKey        string        `yaml:"api_key"`
		Timeout       time.Duration `yaml:"timeout" default:"5s"`
		Retries       int           `yaml:"retries" default:"2"`
	} `yaml:"sheets"`
	ClickHouse struct {
		Host           string        `yaml:"host" default:"localhost"`
		Port           int           `yaml:"port" default:"9000"`
		Database       string        `yaml:"database" default:"omnitrade"`
		User           string        `yaml:"user" default:"default"`
		Password       string        `yaml:"password"`
		UseHTTP        bool          `yaml:"use_http"`
		Table          string        `yaml:"table" default:"market_state"`
		ArchiveActions bool          `yaml:"archive_actions"`
		ArchiveTable   string        `yaml:"archive_table" default:"bot_actions"`
		DialTimeout    time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout    time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"omnitrade"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled          bool     `yaml:"enabled"`
		Brokers          []string `yaml:"brokers"`
		ActionsTopic     string   `yaml:"actions_topic" default:"omnitrade.actions"`
		GovernanceTopic  string   `yaml:"governance_topic" default:"omnitrade.governance"`
		RiskMetricsTopic string   `yaml:"risk_metrics_topic" default:"omnitrade.risk_metrics"`
		RequiredAcks     int      `yaml:"required_acks" default:"1"`
		Compression      string   `yaml:"compression" default:"snappy"`
		Producer         struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"omnitrade-governance"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"64"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
}

var validate = validator.New()

// Default returns a config populated only from struct defaults.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides it with environment
// variables. An empty path means defaults only.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if path == "" {
		c = Default()
	} else if c, err = Load(path); err != nil {
		return nil, err
	}

	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("OMNITRADE_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := getenv("SCANNER_SOURCE"); v != "" {
		c.Scanner.Source = strings.ToLower(v)
	}
	if v := getenv("SHEETS_API_KEY"); v != "" {
		c.Sheets.APIKey = v
	}
	if v := getenv("SHEETS_SPREADSHEET_ID"); v != "" {
		c.Sheets.SpreadsheetID = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	return nil
}

// Validate checks struct tags plus cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Scanner.Source == "sheets" && c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("sheets.spreadsheet_id is required for the sheets scanner")
	}
	return nil
}

// ClickHouseRequired reports whether any component reads or writes ClickHouse.
func (c *Config) ClickHouseRequired() bool {
	return c.Scanner.Source == "clickhouse" || c.ClickHouse.ArchiveActions
}
