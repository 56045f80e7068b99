package internal

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix used when the configuration is read from the
// environment only (APP_SECURITY_JWT_SECRET, APP_CACHE_HOST, ...).
const EnvPrefix = "APP"

type Config struct {
	Env           string              `mapstructure:"env" envconfig:"ENV" default:"development"`
	Server        ServerConfig        `mapstructure:"http_server" envconfig:"HTTP_SERVER"`
	Database      DatabaseConfig      `mapstructure:"database" envconfig:"DATABASE"`
	Security      SecurityConfig      `mapstructure:"security" envconfig:"SECURITY"`
	Cache         CacheConfig         `mapstructure:"cache" envconfig:"CACHE"`
	Menu          MenuConfig          `mapstructure:"menu" envconfig:"MENU"`
	Observability ObservabilityConfig `mapstructure:"observability" envconfig:"OBSERVABILITY"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url" envconfig:"BASE_URL"`
	AllowedOrigins    string        `mapstructure:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" envconfig:"READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	LoginRateLimit    int           `mapstructure:"login_rate_limit" envconfig:"LOGIN_RATE_LIMIT" default:"10" validate:"min=1"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" envconfig:"MAX_OPEN_CONNS" default:"20" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" envconfig:"MAX_IDLE_CONNS" default:"5" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" envconfig:"CONN_MAX_LIFETIME" default:"30m" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" envconfig:"CONN_MAX_IDLE_TIME" default:"5m" validate:"required,min=1m"`
	Source          string        `mapstructure:"source" envconfig:"SOURCE" validate:"required"`
}

type SecurityConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret" envconfig:"JWT_SECRET" validate:"required,min=32"`
	TokenTTL   time.Duration `mapstructure:"token_ttl" envconfig:"TOKEN_TTL" default:"1h" validate:"required,min=1m,max=24h"`
	BCryptCost int           `mapstructure:"bcrypt_cost" envconfig:"BCRYPT_COST" default:"12" validate:"required,min=4,max=15"`
}

type CacheConfig struct {
	Driver   string        `mapstructure:"driver" envconfig:"DRIVER" default:"redis" validate:"oneof=redis memory"`
	Host     string        `mapstructure:"host" envconfig:"HOST" default:"127.0.0.1"`
	Port     int           `mapstructure:"port" envconfig:"PORT" default:"6379"`
	Password string        `mapstructure:"password" envconfig:"PASSWORD"`
	DB       int           `mapstructure:"db" envconfig:"DB" default:"0" validate:"min=0"`
	TTL      time.Duration `mapstructure:"ttl" envconfig:"TTL" default:"3600s" validate:"required,min=1s"`
	Timeout  time.Duration `mapstructure:"timeout" envconfig:"TIMEOUT" default:"250ms" validate:"required"`
	Size     int           `mapstructure:"size" envconfig:"SIZE" default:"1024" validate:"min=1"`
}

type MenuConfig struct {
	OrphanPolicy string `mapstructure:"orphan_policy" envconfig:"ORPHAN_POLICY" default:"drop" validate:"oneof=drop include_ancestors"`
	Placeholder  string `mapstructure:"placeholder" envconfig:"PLACEHOLDER" default:"#"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics" envconfig:"METRICS"`
	Logging LoggingConfig `mapstructure:"logging" envconfig:"LOGGING"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" envconfig:"ENABLED" default:"true"`
	Path    string `mapstructure:"path" envconfig:"PATH" default:"/metrics" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" envconfig:"LEVEL" default:"info" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" envconfig:"FORMAT" default:"json" validate:"required,oneof=json text"`
}

// LoadConfigFromEnv builds the configuration from APP_* environment variables.
func LoadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}

// ApplyDefaults fills zero values left by a config file that omits optional keys.
func (c *Config) ApplyDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LoginRateLimit == 0 {
		c.Server.LoginRateLimit = 10
	}
	if c.Security.TokenTTL == 0 {
		c.Security.TokenTTL = time.Hour
	}
	if c.Security.BCryptCost == 0 {
		c.Security.BCryptCost = 12
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "redis"
	}
	if c.Cache.Host == "" {
		c.Cache.Host = "127.0.0.1"
	}
	if c.Cache.Port == 0 {
		c.Cache.Port = 6379
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 3600 * time.Second
	}
	if c.Cache.Timeout == 0 {
		c.Cache.Timeout = 250 * time.Millisecond
	}
	if c.Cache.Size == 0 {
		c.Cache.Size = 1024
	}
	if c.Menu.OrphanPolicy == "" {
		c.Menu.OrphanPolicy = "drop"
	}
	if c.Menu.Placeholder == "" {
		c.Menu.Placeholder = "#"
	}
	if c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = "/metrics"
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "json"
	}
}

// ----------------- VALIDATION -----------------

var structValidator = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	var errs []string

	if err := structValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Cache.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("cache config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *CacheConfig) Validate() error {
	if c.Driver == "redis" && c.Host == "" {
		return errors.New("host is required for the redis driver")
	}
	if c.Timeout >= c.TTL {
		return errors.New("timeout must be shorter than ttl")
	}
	return nil
}

func (c *CacheConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
