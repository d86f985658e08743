package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"lxsync/pkg/syncerr"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	App        AppConfig
	Lingxing   LingxingConfig
	HTTP       HTTPConfig
	Database   DatabaseConfig
	TokenCache TokenCacheConfig
	Metrics    MetricsConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"lxsync"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"console" validate:"oneof=console json"`
}

// LingxingConfig holds ERP credentials and fetch settings.
type LingxingConfig struct {
	Host      string `envconfig:"LINGXING_HOST" default:"https://openapi.lingxing.com" validate:"required,http_url"`
	AppID     string `envconfig:"LINGXING_APP_ID" validate:"required,nospace"`
	AppSecret string `envconfig:"LINGXING_APP_SECRET" validate:"required,nospace"`

	SourceSystem string `envconfig:"SOURCE_SYSTEM" default:"LINGXING" validate:"required"`
	Platform     string `envconfig:"PLATFORM" default:"AMAZON" validate:"required"`

	ShopPageSize      int    `envconfig:"SHOP_PAGE_SIZE" default:"100" validate:"gt=0"`
	InventoryPageSize int    `envconfig:"INVENTORY_PAGE_SIZE" default:"200" validate:"gt=0"`
	HideZeroStock     string `envconfig:"INVENTORY_HIDE_ZERO_STOCK" default:"0" validate:"oneof=0 1"`
	QueryStorageList  bool   `envconfig:"INVENTORY_QUERY_STORAGE_LIST" default:"true"`
}

// HTTPConfig holds outbound HTTP tunables.
type HTTPConfig struct {
	ConnectTimeout time.Duration `envconfig:"HTTP_CONNECT_TIMEOUT" default:"3s" validate:"gt=0"`
	ReadTimeout    time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s" validate:"gt=0"`
	MaxRetries     int           `envconfig:"HTTP_MAX_RETRIES" default:"5" validate:"gte=0"`
	BackoffBase    time.Duration `envconfig:"HTTP_BACKOFF_BASE" default:"500ms" validate:"gt=0"`
	BackoffMax     time.Duration `envconfig:"HTTP_BACKOFF_MAX" default:"30s" validate:"gtefield=BackoffBase"`
	RetryStatuses  []int         `envconfig:"HTTP_RETRY_STATUSES" default:"429,500,502,503,504" validate:"dive,gte=100,lte=599"`
	MinInterval    time.Duration `envconfig:"HTTP_MIN_INTERVAL" default:"200ms" validate:"gte=0"`
}

// DatabaseConfig holds connection settings. MySQL is the production target;
// sqlite is for local runs and tests.
type DatabaseConfig struct {
	Driver    string `envconfig:"DB_DRIVER" default:"mysql" validate:"oneof=mysql sqlite"`
	Host      string `envconfig:"DB_HOST" default:"localhost"`
	Port      int    `envconfig:"DB_PORT" default:"3306"`
	Name      string `envconfig:"DB_NAME" default:"lxsync"`
	User      string `envconfig:"DB_USER" default:"root"`
	Password  string `envconfig:"DB_PASS" default:""`
	Path      string `envconfig:"DB_PATH" default:"./data/lxsync.db"`
	ChunkSize int    `envconfig:"UPSERT_CHUNK_SIZE" default:"500" validate:"gt=0,lte=1000"`
}

// TokenCacheConfig selects where access tokens are kept between runs.
type TokenCacheConfig struct {
	Type      string `envconfig:"TOKEN_CACHE_TYPE" default:"file" validate:"oneof=file redis memory"`
	Dir       string `envconfig:"TOKEN_CACHE_DIR" default:"."`
	KeyPrefix string `envconfig:"TOKEN_CACHE_PREFIX" default:"lxsync:token"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// MetricsConfig holds Pushgateway settings. An empty URL disables pushing.
type MetricsConfig struct {
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL" default:"" validate:"omitempty,http_url"`
	Job            string `envconfig:"PUSHGATEWAY_JOB" default:"lxsync"`
}

// RedisAddress returns the Redis address in host:port format.
func (c *TokenCacheConfig) RedisAddress() string {
	return net.JoinHostPort(c.RedisHost, strconv.Itoa(c.RedisPort))
}

// DSN returns the MySQL data source name.
func (d *DatabaseConfig) DSN() string {
	mc := mysql.NewConfig()
	mc.User = d.User
	mc.Passwd = d.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	mc.DBName = d.Name
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// Validate checks the configuration. Any failure is a configuration error,
// reported before a single request is sent.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("nospace", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), " \t\r\n")
	})

	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return syncerr.Config(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return syncerr.Config(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "nospace":
		return field + " must not contain whitespace"
	case "http_url":
		return field + " must be an absolute http(s) URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, syncerr.Config(fmt.Sprintf("failed to load config: %v", err))
	}

	return &cfg, nil
}

