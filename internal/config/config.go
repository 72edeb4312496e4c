// config — загрузка конфигурации cms-console.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
//
// После загрузки конфигурация проверяется (Validate).
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// ErrInvalidConfig — значения загружены, но не проходят проверку.
var ErrInvalidConfig = errors.New("invalid config")

// Драйверы хранилища сессии.
const (
	SessionFile   = "file"
	SessionRedis  = "redis"
	SessionMemory = "memory"
)

type Config struct {
	Env           string             `yaml:"env" env:"ENV" env-default:"local"`
	HTTP          HTTPConfig         `yaml:"http"`
	Metrics       MetricsConfig      `yaml:"metrics"`
	CMS           CMSConfig          `yaml:"cms"`
	Session       SessionConfig      `yaml:"session"`
	Search        SearchConfig       `yaml:"search"`
	Pagination    PaginationConfig   `yaml:"pagination"`
	Notifications NotificationConfig `yaml:"notifications"`
	Timeouts      TimeoutConfig      `yaml:"timeouts"`
}

// TimeoutConfig — таймаут обработки запроса BFF.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE" env-default:"15s"`
}

// HTTPConfig — локальный REST-сервер для UI.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"127.0.0.1"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"50090"`
}

func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// MetricsConfig — отдельный HTTP для Prometheus.
type MetricsConfig struct {
	Host string `yaml:"host" env:"METRICS_HOST" env-default:"127.0.0.1"`
	Port string `yaml:"port" env:"METRICS_PORT" env-default:"50085"`
}

func (m MetricsConfig) Addr() string { return net.JoinHostPort(m.Host, m.Port) }

// CMSConfig — удалённый REST API.
type CMSConfig struct {
	BaseURL   string        `yaml:"base_url"   env:"CMS_BASE_URL"`
	Timeout   time.Duration `yaml:"timeout"    env:"CMS_TIMEOUT"    env-default:"15s"`
	UserAgent string        `yaml:"user_agent" env:"CMS_USER_AGENT" env-default:"cms-console"`
	// RPS — лимит исходящих запросов в секунду; 0 — без лимита.
	RPS   float64 `yaml:"rps"   env:"CMS_RPS"   env-default:"0"`
	Burst int     `yaml:"burst" env:"CMS_BURST" env-default:"10"`
}

// SessionConfig — где хранится закодированный токен.
type SessionConfig struct {
	Driver   string        `yaml:"driver"    env:"SESSION_DRIVER"    env-default:"file"`
	Path     string        `yaml:"path"      env:"SESSION_PATH"      env-default:".cms-session"`
	RedisURL string        `yaml:"redis_url" env:"SESSION_REDIS_URL"`
	Prefix   string        `yaml:"prefix"    env:"SESSION_PREFIX"    env-default:"cms:session:"`
	TTL      time.Duration `yaml:"ttl"       env:"SESSION_TTL"       env-default:"48h"`
}

type SearchConfig struct {
	Debounce time.Duration `yaml:"debounce"  env:"SEARCH_DEBOUNCE"  env-default:"800ms"`
	PageSize int           `yaml:"page_size" env:"SEARCH_PAGE_SIZE" env-default:"6"`
}

type PaginationConfig struct {
	PageSize int `yaml:"page_size" env:"PAGE_SIZE" env-default:"10"`
}

type NotificationConfig struct {
	Capacity int `yaml:"capacity" env:"NOTIFICATIONS_CAPACITY" env-default:"50"`
}

// MustLoad — паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func read(path string) (*Config, error) {
	var cfg Config

	fromFile := func(p string) (*Config, error) {
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) --config, 2) CONFIG_PATH
	for _, p := range []string{path, os.Getenv("CONFIG_PATH")} {
		if p == "" {
			continue
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		return fromFile(p)
	}

	// 3) ./local.yaml
	if _, err := os.Stat("local.yaml"); err == nil {
		return fromFile("local.yaml")
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}

// Validate проверяет значения, которые cleanenv проверить не может.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.CMS.BaseURL)
	if c.CMS.BaseURL == "" || err != nil || !u.IsAbs() || u.Host == "" {
		errs = append(errs, fmt.Errorf("cms.base_url must be an absolute URL, got %q", c.CMS.BaseURL))
	}

	if c.CMS.Timeout <= 0 {
		errs = append(errs, errors.New("cms.timeout must be positive"))
	}

	if c.CMS.RPS < 0 {
		errs = append(errs, errors.New("cms.rps must not be negative"))
	}

	switch c.Session.Driver {
	case SessionFile:
		if c.Session.Path == "" {
			errs = append(errs, errors.New("session.path is required for file driver"))
		}
	case SessionRedis:
		if c.Session.RedisURL == "" {
			errs = append(errs, errors.New("session.redis_url is required for redis driver"))
		}
	case SessionMemory:
	default:
		errs = append(errs, fmt.Errorf("session.driver %q is unknown", c.Session.Driver))
	}

	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}

	if c.Search.PageSize <= 0 || c.Pagination.PageSize <= 0 {
		errs = append(errs, errors.New("page sizes must be positive"))
	}

	if c.Search.Debounce <= 0 {
		errs = append(errs, errors.New("search.debounce must be positive"))
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
