package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeFile — утилита записи временного файла конфигурации.
func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	return p
}

// chdir — смена текущего рабочего каталога с авто-возвратом.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

const sampleYAML = `
env: "prod"
http:
  host: "0.0.0.0"
  port: "8080"
metrics:
  host: "127.0.0.1"
  port: "9090"
cms:
  base_url: "https://cms.example.com/api"
  timeout: "5s"
  user_agent: "console/1.0"
  rps: 20
  burst: 5
session:
  driver: "redis"
  redis_url: "redis://127.0.0.1:6379/0"
  prefix: "test:"
  ttl: "24h"
search:
  debounce: "500ms"
  page_size: 8
pagination:
  page_size: 12
notifications:
  capacity: 7
timeouts:
  service: "3s"
`

// Минимальный YAML: всё остальное — дефолты.
const minimalYAML = `
env: "stage"
cms:
  base_url: "http://localhost:1337/api"
`

const brokenYAML = `
env: [unclosed
`

func TestHTTPConfig_Addr(t *testing.T) {
	t.Parallel()
	cfg := HTTPConfig{Host: "0.0.0.0", Port: "8080"}
	require.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestMetricsConfig_Addr(t *testing.T) {
	t.Parallel()
	cfg := MetricsConfig{Host: "127.0.0.1", Port: "9090"}
	require.Equal(t, "127.0.0.1:9090", cfg.Addr())
}

func TestLoad_WithExplicitPath_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	require.Equal(t, "127.0.0.1:9090", cfg.Metrics.Addr())

	require.Equal(t, "https://cms.example.com/api", cfg.CMS.BaseURL)
	require.Equal(t, 5*time.Second, cfg.CMS.Timeout)
	require.Equal(t, "console/1.0", cfg.CMS.UserAgent)
	require.InDelta(t, 20.0, cfg.CMS.RPS, 1e-9)
	require.Equal(t, 5, cfg.CMS.Burst)

	require.Equal(t, SessionRedis, cfg.Session.Driver)
	require.Equal(t, "redis://127.0.0.1:6379/0", cfg.Session.RedisURL)
	require.Equal(t, "test:", cfg.Session.Prefix)
	require.Equal(t, 24*time.Hour, cfg.Session.TTL)

	require.Equal(t, 500*time.Millisecond, cfg.Search.Debounce)
	require.Equal(t, 8, cfg.Search.PageSize)
	require.Equal(t, 12, cfg.Pagination.PageSize)
	require.Equal(t, 7, cfg.Notifications.Capacity)
	require.Equal(t, 3*time.Second, cfg.Timeouts.Service)
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", minimalYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, 15*time.Second, cfg.CMS.Timeout)
	require.Equal(t, SessionFile, cfg.Session.Driver)
	require.Equal(t, ".cms-session", cfg.Session.Path)
	require.Equal(t, 48*time.Hour, cfg.Session.TTL)
	require.Equal(t, 800*time.Millisecond, cfg.Search.Debounce)
	require.Equal(t, 6, cfg.Search.PageSize)
	require.Equal(t, 10, cfg.Pagination.PageSize)
	require.Equal(t, 50, cfg.Notifications.Capacity)
}

func TestLoad_WithExplicitPath_BrokenYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "broken.yaml", brokenYAML)

	_, err := Load(cfgPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_WithCONFIG_PATH_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "from_env_path.yaml", minimalYAML)
	t.Setenv("CONFIG_PATH", cfgPath)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "stage", cfg.Env)
}

func TestLoad_WithLocalYAML_OK(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, ".", "local.yaml", sampleYAML)
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
}

// Явный путь важнее CONFIG_PATH и local.yaml.
func TestLoad_Priority_ExplicitWinsOverEnvAndLocal(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	explicit := writeFile(t, dir, "explicit.yaml", sampleYAML)
	t.Setenv("CONFIG_PATH", writeFile(t, dir, "bad.yaml", brokenYAML))
	writeFile(t, ".", "local.yaml", minimalYAML)

	cfg, err := Load(explicit)
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
}

func TestLoad_EnvOverlay_OverridesValuesFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	t.Setenv("HTTP_PORT", "18080")
	t.Setenv("CMS_BASE_URL", "https://other.example.com/api")
	t.Setenv("SESSION_DRIVER", "memory")
	t.Setenv("SEARCH_DEBOUNCE", "1s")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "18080", cfg.HTTP.Port)
	require.Equal(t, "https://other.example.com/api", cfg.CMS.BaseURL)
	require.Equal(t, SessionMemory, cfg.Session.Driver)
	require.Equal(t, time.Second, cfg.Search.Debounce)
}

// «Только ENV» без файлов.
func TestLoad_EnvOnly_OK(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CONFIG_PATH", "")

	t.Setenv("ENV", "dev")
	t.Setenv("CMS_BASE_URL", "http://127.0.0.1:1337/api")
	t.Setenv("SESSION_DRIVER", "memory")
	t.Setenv("SERVICE", "2s")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "http://127.0.0.1:1337/api", cfg.CMS.BaseURL)
	require.Equal(t, 2*time.Second, cfg.Timeouts.Service)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		return Config{
			CMS:        CMSConfig{BaseURL: "https://cms.example.com/api", Timeout: time.Second},
			Session:    SessionConfig{Driver: SessionMemory, TTL: time.Hour},
			Search:     SearchConfig{Debounce: time.Second, PageSize: 6},
			Pagination: PaginationConfig{PageSize: 10},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "relative_base_url", mutate: func(c *Config) { c.CMS.BaseURL = "/api" }, want: "cms.base_url"},
		{name: "empty_base_url", mutate: func(c *Config) { c.CMS.BaseURL = "" }, want: "cms.base_url"},
		{name: "unknown_driver", mutate: func(c *Config) { c.Session.Driver = "etcd" }, want: "session.driver"},
		{name: "redis_without_url", mutate: func(c *Config) { c.Session.Driver = SessionRedis }, want: "session.redis_url"},
		{name: "file_without_path", mutate: func(c *Config) { c.Session.Driver = SessionFile }, want: "session.path"},
		{name: "zero_ttl", mutate: func(c *Config) { c.Session.TTL = 0 }, want: "session.ttl"},
		{name: "zero_page_size", mutate: func(c *Config) { c.Pagination.PageSize = 0 }, want: "page sizes"},
		{name: "negative_rps", mutate: func(c *Config) { c.CMS.RPS = -1 }, want: "cms.rps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.want == "" {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrInvalidConfig)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMustLoad_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "ok.yaml", minimalYAML)

	cfg := MustLoad(cfgPath)
	require.NotNil(t, cfg)
	require.Equal(t, "stage", cfg.Env)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		_ = MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}
