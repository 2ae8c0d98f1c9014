package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"120s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"5s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	// Backend selects the price store: sqlite or clickhouse.
	Backend struct {
		Type string `yaml:"type" default:"sqlite"`
	} `yaml:"backend"`
	Database struct {
		Name string `yaml:"name" default:"stock_data.db"`
	} `yaml:"database"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"volserve"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		Table            string        `yaml:"table" default:"daily_prices"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	AlphaVantage struct {
		APIKey            string        `yaml:"api_key"`
		BaseURL           string        `yaml:"base_url" default:"https://www.alphavantage.co/query"`
		OutputSize        string        `yaml:"output_size" default:"full"`
		Timeout           time.Duration `yaml:"timeout" default:"30s"`
		UserAgent         string        `yaml:"user_agent" default:"volserve/1.0"`
		RequestsPerMinute float64       `yaml:"requests_per_minute" default:"5"`
	} `yaml:"alpha_vantage"`
	Model struct {
		Path      string `yaml:"path" default:"models"`
		Extension string `yaml:"extension" default:"json"`
	} `yaml:"model"`
	Garch struct {
		MaxIterations int     `yaml:"max_iterations" default:"10000"`
		Tolerance     float64 `yaml:"tolerance" default:"1e-9"`
		Restarts      int     `yaml:"restarts" default:"2"`
	} `yaml:"garch"`
	Cache struct {
		Enabled bool          `yaml:"enabled" default:"true"`
		TTL     time.Duration `yaml:"ttl" default:"24h"`
		Memory  struct {
			MaxSize         int           `yaml:"max_size" default:"1000"`
			CleanupInterval time.Duration `yaml:"cleanup_interval" default:"1m"`
		} `yaml:"memory"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"volserve"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"volserve.model.trained"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Scheduler struct {
		Enabled bool     `yaml:"enabled"`
		Spec    string   `yaml:"spec" default:"30 22 * * 1-5"`
		Tickers []string `yaml:"tickers"`
		Refresh bool     `yaml:"refresh" default:"true"`
		NPoints int      `yaml:"n_points" default:"2000"`
		P       int      `yaml:"p" default:"1"`
		Q       int      `yaml:"q" default:"1"`
	} `yaml:"scheduler"`
}

// Default returns a config populated from struct defaults only.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML, applies environment overrides and
// validates the result once, so a file may leave env-supplied fields empty.
func LoadWithEnv(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	// ALPHA_KEY is the older name; ALPHA_API_KEY wins when both are set.
	for _, k := range []string{"ALPHA_KEY", "ALPHA_API_KEY"} {
		if v := os.Getenv(k); v != "" {
			c.AlphaVantage.APIKey = v
		}
	}
	if v := os.Getenv("DATABASE_NAME"); v != "" {
		c.Database.Name = v
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type != "sqlite" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'sqlite' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if c.Backend.Type == "sqlite" && c.Database.Name == "" {
		return fmt.Errorf("database.name is required for the sqlite backend")
	}
	if c.Model.Path == "" {
		return fmt.Errorf("model.path is required")
	}
	if c.Model.Extension == "" || strings.ContainsAny(c.Model.Extension, "./\\*") {
		return fmt.Errorf("model.extension %q is invalid", c.Model.Extension)
	}
	switch c.AlphaVantage.OutputSize {
	case "compact", "full":
	default:
		return fmt.Errorf("alpha_vantage.output_size must be 'compact' or 'full'")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Scheduler.Enabled {
		if len(c.Scheduler.Tickers) == 0 {
			return fmt.Errorf("scheduler.tickers cannot be empty when the scheduler is enabled")
		}
		if c.Scheduler.P < 0 || c.Scheduler.Q < 0 || c.Scheduler.P+c.Scheduler.Q == 0 {
			return fmt.Errorf("scheduler.p and scheduler.q must be >= 0 and not both zero")
		}
	}
	return nil
}
