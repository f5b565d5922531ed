package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	API struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"corsOrigins"`
	} `yaml:"api"`
	Services struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
		Token   string `yaml:"token"`
	} `yaml:"services"`
	Quiz struct {
		AdvanceDelay string `yaml:"advanceDelay"`
		AnswerFormat string `yaml:"answerFormat"`
	} `yaml:"quiz"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	OpenAI struct {
		APIKey  string `yaml:"apiKey"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"openai"`
	Auth struct {
		Secret   string `yaml:"secret"`
		TokenTTL string `yaml:"tokenTTL"`
	} `yaml:"auth"`
	Session struct {
		Secret string `yaml:"secret"`
	} `yaml:"session"`
	Cache struct {
		TTL string `yaml:"ttl"`
	} `yaml:"cache"`
}

// Load reads YAML config from path and applies environment overrides. A
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	override(&cfg.Server.Port, "PORT")
	override(&cfg.API.Port, "API_PORT")
	override(&cfg.Services.URL, "SERVICES_URL")
	override(&cfg.Services.Token, "SERVICES_TOKEN")
	override(&cfg.Redis.Addr, "REDIS_ADDR")
	override(&cfg.Postgres.URL, "DATABASE_URL")
	override(&cfg.SQLite.Path, "SQLITE_PATH")
	override(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	override(&cfg.Auth.Secret, "AUTH_SECRET")
	override(&cfg.Session.Secret, "SESSION_SECRET")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.API.CORSOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.API.CORSOrigins = append(cfg.API.CORSOrigins, origin)
			}
		}
	}
}

func override(field *string, env string) {
	if v := os.Getenv(env); v != "" {
		*field = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
