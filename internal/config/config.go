package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/as2aas/client"
	"github.com/dropDatabas3/as2aas/domain"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | test | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	// Client es lo que consume la CLI vía ClientConfig.
	Client struct {
		APIKey   string `yaml:"api_key"`
		BaseURL  string `yaml:"base_url"`
		TenantID string `yaml:"tenant_id"`
		// Timeout y RetryDelay en YAML son duraciones ("30s"); por env, ms.
		Timeout    string `yaml:"timeout"`
		Retries    int    `yaml:"retries"`
		RetryDelay string `yaml:"retry_delay"`

		DefaultMDNMode    string `yaml:"default_mdn_mode"`
		DefaultSigning    *bool  `yaml:"default_signing"`
		DefaultEncryption *bool  `yaml:"default_encryption"`
		AutoValidateEDI   bool   `yaml:"auto_validate_edi"`
	} `yaml:"client"`

	Webhook struct {
		Secret string `yaml:"secret"`
		// Tolerance en segundos para el timestamp de los eventos.
		Tolerance int    `yaml:"tolerance"`
		Addr      string `yaml:"addr"`
	} `yaml:"webhook"`

	Cache struct {
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Mock struct {
		Addr string `yaml:"addr"`
		// APIKeys fija las keys aceptadas; vacío acepta cualquier key bien formada.
		APIKeys []string `yaml:"api_keys"`
		Rate    struct {
			Enabled bool   `yaml:"enabled"`
			Max     int    `yaml:"max"`
			Window  string `yaml:"window"`
		} `yaml:"rate"`
		IdempotencyTTL string `yaml:"idempotency_ttl"`
		// Empty arranca sin la cuenta y los tenants semilla.
		Empty bool `yaml:"empty"`
	} `yaml:"mock"`
}

// Load lee el YAML (si path != "") y aplica defaults y overrides de env.
// Sin path la config sale solo del entorno.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	c.setDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) setDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Client.DefaultMDNMode == "" {
		c.Client.DefaultMDNMode = string(domain.MDNAsync)
	}
	if c.Webhook.Tolerance == 0 {
		c.Webhook.Tolerance = 300
	}
	if c.Webhook.Addr == "" {
		c.Webhook.Addr = ":8090"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "as2aas"
	}
	if c.Mock.Addr == "" {
		c.Mock.Addr = ":8080"
	}
	if c.Mock.Rate.Max == 0 {
		c.Mock.Rate.Max = 600
	}
	if c.Mock.Rate.Window == "" {
		c.Mock.Rate.Window = "1m"
	}
	if c.Mock.IdempotencyTTL == "" {
		c.Mock.IdempotencyTTL = "24h"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// getEnvMillis lee un entero en milisegundos y lo devuelve como duración en texto.
func getEnvMillis(key string) (string, bool) {
	if ms, ok := getEnvInt(key); ok && ms >= 0 {
		return (time.Duration(ms) * time.Millisecond).String(), true
	}
	return "", false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}

	// CLIENT
	if v, ok := getEnvStr(client.EnvAPIKey); ok {
		c.Client.APIKey = strings.TrimSpace(v)
	}
	if v, ok := getEnvStr("AS2AAS_BASE_URL"); ok {
		c.Client.BaseURL = v
	}
	if v, ok := getEnvStr("AS2AAS_TENANT_ID"); ok {
		c.Client.TenantID = strings.TrimSpace(v)
	}
	if v, ok := getEnvMillis("AS2AAS_TIMEOUT"); ok {
		c.Client.Timeout = v
	}
	if v, ok := getEnvInt("AS2AAS_RETRIES"); ok {
		c.Client.Retries = v
	}
	if v, ok := getEnvMillis("AS2AAS_RETRY_DELAY"); ok {
		c.Client.RetryDelay = v
	}
	if v, ok := getEnvStr("AS2AAS_DEFAULT_MDN_MODE"); ok {
		c.Client.DefaultMDNMode = strings.ToLower(v)
	}
	if v, ok := getEnvBool("AS2AAS_DEFAULT_SIGNING"); ok {
		c.Client.DefaultSigning = &v
	}
	if v, ok := getEnvBool("AS2AAS_DEFAULT_ENCRYPTION"); ok {
		c.Client.DefaultEncryption = &v
	}
	if v, ok := getEnvBool("AS2AAS_AUTO_VALIDATE_EDI"); ok {
		c.Client.AutoValidateEDI = v
	}

	// WEBHOOK
	if v, ok := getEnvStr("AS2AAS_WEBHOOK_SECRET"); ok {
		c.Webhook.Secret = v
	}
	if v, ok := getEnvInt("AS2AAS_WEBHOOK_TOLERANCE"); ok {
		c.Webhook.Tolerance = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// MOCK
	if v, ok := getEnvStr("MOCK_ADDR"); ok {
		c.Mock.Addr = v
	}
	if v, ok := getEnvCSV("MOCK_API_KEYS"); ok {
		c.Mock.APIKeys = v
	}
	if v, ok := getEnvInt("MOCK_RATE_MAX"); ok {
		c.Mock.Rate.Max = v
		c.Mock.Rate.Enabled = v > 0
	}
	if v, ok := getEnvStr("MOCK_RATE_WINDOW"); ok {
		c.Mock.Rate.Window = v
	}
}

// Validate revisa las duraciones en texto y los enums.
func (c *Config) Validate() error {
	var errs []error
	for name, v := range map[string]string{
		"client.timeout":       c.Client.Timeout,
		"client.retry_delay":   c.Client.RetryDelay,
		"mock.rate.window":     c.Mock.Rate.Window,
		"mock.idempotency_ttl": c.Mock.IdempotencyTTL,
	} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("config: %s: invalid duration %q", name, v))
		}
	}
	switch domain.MDNMode(c.Client.DefaultMDNMode) {
	case domain.MDNSync, domain.MDNAsync:
	default:
		errs = append(errs, fmt.Errorf("config: client.default_mdn_mode: must be sync or async, got %q", c.Client.DefaultMDNMode))
	}
	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			errs = append(errs, errors.New("config: cache.redis.addr is required when cache.kind=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: cache.kind: unknown kind %q", c.Cache.Kind))
	}
	if c.Webhook.Tolerance < 0 {
		errs = append(errs, errors.New("config: webhook.tolerance must be >= 0"))
	}
	return errors.Join(errs...)
}

// dur parsea una duración ya validada; vacío => 0.
func dur(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// ClientConfig arma la config del cliente. Logger y Metrics los pone quien llama.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		APIKey:            c.Client.APIKey,
		BaseURL:           c.Client.BaseURL,
		Timeout:           dur(c.Client.Timeout),
		Retries:           c.Client.Retries,
		RetryDelay:        dur(c.Client.RetryDelay),
		DefaultMDNMode:    domain.MDNMode(c.Client.DefaultMDNMode),
		DefaultSigning:    c.Client.DefaultSigning,
		DefaultEncryption: c.Client.DefaultEncryption,
		AutoValidateEDI:   c.Client.AutoValidateEDI,
		Tenant:            c.Client.TenantID,
	}
}

// WebhookTolerance devuelve la tolerancia como duración.
func (c *Config) WebhookTolerance() time.Duration {
	return time.Duration(c.Webhook.Tolerance) * time.Second
}

// RateWindow y IdempotencyTTL ya vienen validados por Load.
func (c *Config) RateWindow() time.Duration     { return dur(c.Mock.Rate.Window) }
func (c *Config) IdempotencyTTL() time.Duration { return dur(c.Mock.IdempotencyTTL) }
