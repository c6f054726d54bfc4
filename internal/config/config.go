package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del servicio.
// Se carga desde YAML y se puede pisar con variables de entorno (ver Load).
type Config struct {
	App struct {
		// dev | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr         string        `yaml:"addr"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`

	// IDP es el identity provider externo (Cognito user pool).
	IDP struct {
		Region     string `yaml:"region"`
		UserPoolID string `yaml:"user_pool_id"`
		ClientID   string `yaml:"client_id"`
		// Endpoint opcional para apuntar a un emulador local.
		Endpoint string `yaml:"endpoint"`
		// Credenciales estáticas opcionales; si faltan se usa la cadena
		// por defecto del SDK (env, perfil, rol).
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
	} `yaml:"idp"`

	Storage struct {
		// postgres | dynamodb
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
		Table  string `yaml:"table"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Driver string        `yaml:"driver"`
		TTL    time.Duration `yaml:"ttl"`
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	JWT struct {
		// JWKSTTL es la ventana de frescura del key set (default 1h).
		JWKSTTL time.Duration `yaml:"jwks_ttl"`
		// SharedKeys comparte el JWK set vía el cache configurado para que
		// varias instancias no refetcheen cada una. Solo material público;
		// los secretos del vault nunca se cachean.
		SharedKeys bool `yaml:"shared_keys"`
	} `yaml:"jwt"`

	Vault struct {
		// Endpoint opcional para apuntar a un emulador local.
		Endpoint string `yaml:"endpoint"`
	} `yaml:"vault"`

	Gateway struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"gateway"`

	Profile struct {
		// AllowBootstrap habilita la creación de perfiles por email sin
		// token previo (variante bootstrap, temp ids). Default false.
		AllowBootstrap bool `yaml:"allow_bootstrap"`
	} `yaml:"profile"`
}

// Load lee el YAML indicado (puede no existir) y aplica overrides de entorno.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: reading %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.App.Env = "dev"
	cfg.App.LogLevel = "info"
	cfg.Server.Addr = ":8080"
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Storage.Driver = "postgres"
	cfg.Storage.Table = "users"
	cfg.Cache.Driver = "memory"
	cfg.Cache.TTL = 5 * time.Minute
	cfg.JWT.JWKSTTL = time.Hour
	cfg.Gateway.Timeout = 25 * time.Second
	return cfg
}

// applyEnv pisa valores con variables de entorno. Los nombres siguen los de
// la infraestructura original (COGNITO_USER_POOL_ID, USERS_TABLE_NAME, etc.)
// para que el servicio sea drop-in en el mismo deployment.
func applyEnv(cfg *Config) {
	envStr("APP_ENV", &cfg.App.Env)
	envStr("LOG_LEVEL", &cfg.App.LogLevel)
	envStr("SERVER_ADDR", &cfg.Server.Addr)

	envStr("AWS_REGION", &cfg.IDP.Region)
	envStr("COGNITO_USER_POOL_ID", &cfg.IDP.UserPoolID)
	envStr("COGNITO_CLIENT_ID", &cfg.IDP.ClientID)
	envStr("COGNITO_ENDPOINT", &cfg.IDP.Endpoint)

	envStr("STORAGE_DRIVER", &cfg.Storage.Driver)
	envStr("STORAGE_DSN", &cfg.Storage.DSN)
	envStr("USERS_TABLE_NAME", &cfg.Storage.Table)

	envStr("CACHE_DRIVER", &cfg.Cache.Driver)
	envStr("REDIS_ADDR", &cfg.Cache.Redis.Addr)
	envStr("REDIS_PASSWORD", &cfg.Cache.Redis.Password)
	envInt("REDIS_DB", &cfg.Cache.Redis.DB)
	envStr("REDIS_PREFIX", &cfg.Cache.Redis.Prefix)

	envDur("JWKS_TTL", &cfg.JWT.JWKSTTL)
	envBool("JWKS_SHARED_CACHE", &cfg.JWT.SharedKeys)
	envStr("SECRETS_MANAGER_ENDPOINT", &cfg.Vault.Endpoint)
	envDur("GATEWAY_TIMEOUT", &cfg.Gateway.Timeout)

	envBool("PROFILE_ALLOW_BOOTSTRAP", &cfg.Profile.AllowBootstrap)
}

// ValidateIDP falla si falta la configuración mínima del identity provider.
// En el arranque solo se advierte; en runtime cada operación del provider
// reporta idp.ErrNotConfigured y el controller lo traduce a un 500 de
// configuración.
func (c *Config) ValidateIDP() error {
	if strings.TrimSpace(c.IDP.Region) == "" {
		return fmt.Errorf("config: idp.region is required")
	}
	if strings.TrimSpace(c.IDP.UserPoolID) == "" || strings.TrimSpace(c.IDP.ClientID) == "" {
		return fmt.Errorf("config: idp.user_pool_id and idp.client_id are required")
	}
	return nil
}

func envStr(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}

func envDur(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			*dst = d
		}
	}
}
