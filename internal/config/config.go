package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid agrupa los errores de validación de configuración.
var ErrInvalid = errors.New("config: invalid")

// Config del servicio HTTP.
type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr          string        `yaml:"addr"`
		ShutdownGrace time.Duration `yaml:"shutdown_grace"`
	} `yaml:"server"`

	IdP struct {
		Domain       string        `yaml:"domain"`
		Audience     string        `yaml:"audience"`
		HTTPTimeout  time.Duration `yaml:"http_timeout"`
		JWKSCacheTTL time.Duration `yaml:"jwks_cache_ttl"`
	} `yaml:"idp"`

	Identity struct {
		CacheSize      int           `yaml:"cache_size"`
		ResolveTimeout time.Duration `yaml:"resolve_timeout"`
	} `yaml:"identity"`

	Storage struct {
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		MaxConns int32  `yaml:"max_conns"`
		Migrate  bool   `yaml:"migrate"`
		Mongo    struct {
			URI      string `yaml:"uri"`
			Database string `yaml:"database"`
		} `yaml:"mongo"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Rate struct {
		MaxRequests int           `yaml:"max_requests"`
		Window      time.Duration `yaml:"window"`
	} `yaml:"rate"`
}

// LoadDotEnv carga variables desde un .env si existe; sin archivo no es error.
// Las variables ya presentes en el entorno no se pisan.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// Load lee el YAML opcional en path (vacío = sólo defaults), aplica overrides
// de entorno y valida.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownGrace == 0 {
		c.Server.ShutdownGrace = 10 * time.Second
	}
	if c.IdP.HTTPTimeout == 0 {
		c.IdP.HTTPTimeout = 10 * time.Second
	}
	if c.Identity.CacheSize == 0 {
		c.Identity.CacheSize = 10_000
	}
	if c.Identity.ResolveTimeout == 0 {
		c.Identity.ResolveTimeout = 10 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Mongo.Database == "" {
		c.Storage.Mongo.Database = "hellotodo"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "hellotodo:"
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	// IDP
	if v, ok := getEnvStr("IDP_DOMAIN"); ok {
		c.IdP.Domain = v
	}
	if v, ok := getEnvStr("IDP_AUDIENCE"); ok {
		c.IdP.Audience = v
	}
	if v, ok := getEnvDur("IDP_HTTP_TIMEOUT"); ok {
		c.IdP.HTTPTimeout = v
	}
	if v, ok := getEnvDur("JWKS_CACHE_TTL"); ok {
		c.IdP.JWKSCacheTTL = v
	}
	if v, ok := getEnvInt("USER_CACHE_SIZE"); ok {
		c.Identity.CacheSize = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvBool("STORAGE_MIGRATE"); ok {
		c.Storage.Migrate = v
	}
	if v, ok := getEnvStr("MONGO_URI"); ok {
		c.Storage.Mongo.URI = v
	}
	if v, ok := getEnvStr("MONGO_DATABASE"); ok {
		c.Storage.Mongo.Database = v
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

	// RATE
	if v, ok := getEnvInt("RATE_MAX"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
}

// Validate reporta todas las claves faltantes o inválidas juntas.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.IdP.Domain) == "" {
		problems = append(problems, "IDP_DOMAIN is required")
	}
	if strings.TrimSpace(c.IdP.Audience) == "" {
		problems = append(problems, "IDP_AUDIENCE is required")
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			problems = append(problems, "STORAGE_DSN is required for postgres")
		}
	case "mongo":
		if c.Storage.Mongo.URI == "" {
			problems = append(problems, "MONGO_URI is required for mongo")
		}
	default:
		problems = append(problems, fmt.Sprintf("STORAGE_DRIVER %q not supported", c.Storage.Driver))
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		problems = append(problems, fmt.Sprintf("CACHE_KIND %q not supported", c.Cache.Kind))
	}
	if c.Identity.CacheSize < 0 {
		problems = append(problems, "USER_CACHE_SIZE must be positive")
	}
	if c.Rate.MaxRequests < 0 {
		problems = append(problems, "RATE_MAX must be >= 0")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(s); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(s); err == nil {
			return d, true
		}
	}
	return 0, false
}
