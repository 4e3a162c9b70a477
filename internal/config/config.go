package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Addr        string        `yaml:"addr"`
	Store       string        `yaml:"store"`
	StorePath   string        `yaml:"store_path"`
	DatabaseURL string        `yaml:"database_url"`
	Slot        string        `yaml:"slot"`
	TickEvery   time.Duration `yaml:"tick_every"`
	SaveEvery   time.Duration `yaml:"save_every"`
	Seed        int64         `yaml:"seed"`
	MaxOffline  time.Duration `yaml:"max_offline"`
	TapRate     float64       `yaml:"tap_rate"`
	AccessLog   bool          `yaml:"access_log"`
	LogLevel    string        `yaml:"log_level"`
	LogFormat   string        `yaml:"log_format"`
}

type CLIConfig struct {
	APIBaseURL string
	QueuePath  string
}

// LoadServer layers defaults, an optional YAML file named by DESK_CONFIG and
// the environment (a .env file in the working directory is loaded first).
func LoadServer() (ServerConfig, error) {
	_ = godotenv.Load()

	cfg := defaultServer()
	if path := strings.TrimSpace(os.Getenv("DESK_CONFIG")); path != "" {
		if err := readYAML(path, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	setDefaults(&cfg)
	return cfg, cfg.validate()
}

func LoadCLI() CLIConfig {
	_ = godotenv.Load()
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("DESK_API_BASE_URL", "http://localhost:8080"), "/"),
		QueuePath:  envDefault("DESK_QUEUE_PATH", ""),
	}
}

func defaultServer() ServerConfig {
	return ServerConfig{
		Addr:       ":8080",
		Store:      "file",
		Slot:       "default",
		TickEvery:  time.Second,
		SaveEvery:  10 * time.Second,
		MaxOffline: 8 * time.Hour,
		TapRate:    15,
		AccessLog:  true,
		LogLevel:   "info",
		LogFormat:  "json",
	}
}

func readYAML(path string, cfg *ServerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *ServerConfig) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Addr = port
	} else {
		cfg.Addr = envDefault("DESK_ADDR", cfg.Addr)
	}
	cfg.Store = strings.ToLower(envDefault("DESK_STORE", cfg.Store))
	cfg.StorePath = envDefault("DESK_STORE_PATH", cfg.StorePath)
	cfg.DatabaseURL = envDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.Slot = envDefault("DESK_SAVE_SLOT", cfg.Slot)
	cfg.TickEvery = envDurationDefault("DESK_TICK_EVERY", cfg.TickEvery)
	cfg.SaveEvery = envDurationDefault("DESK_SAVE_EVERY", cfg.SaveEvery)
	cfg.Seed = envInt64Default("DESK_SEED", cfg.Seed)
	cfg.MaxOffline = envDurationDefault("DESK_MAX_OFFLINE", cfg.MaxOffline)
	cfg.TapRate = envFloatDefault("DESK_TAP_RATE", cfg.TapRate)
	cfg.AccessLog = envBoolDefault("DESK_ACCESS_LOG", cfg.AccessLog)
	cfg.LogLevel = strings.ToLower(envDefault("DESK_LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(envDefault("DESK_LOG_FORMAT", cfg.LogFormat))
}

// setDefaults repairs zero values a YAML file may have written over.
func setDefaults(cfg *ServerConfig) {
	d := defaultServer()
	if cfg.Addr == "" {
		cfg.Addr = d.Addr
	}
	if cfg.Store == "" {
		cfg.Store = d.Store
	}
	if cfg.Slot == "" {
		cfg.Slot = d.Slot
	}
	if cfg.TickEvery <= 0 {
		cfg.TickEvery = d.TickEvery
	}
	if cfg.SaveEvery <= 0 {
		cfg.SaveEvery = d.SaveEvery
	}
	if cfg.MaxOffline <= 0 {
		cfg.MaxOffline = d.MaxOffline
	}
	if cfg.TapRate <= 0 {
		cfg.TapRate = d.TapRate
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = d.LogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = d.LogFormat
	}
}

func (c ServerConfig) validate() error {
	switch c.Store {
	case "memory", "file", "sqlite":
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envInt64Default(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
