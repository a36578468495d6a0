package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	IFood        IFoodConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"COMANDA_APP_ENV" required:"true"`
	Port         string `envconfig:"COMANDA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"COMANDA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"COMANDA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"COMANDA_DB_DSN" required:"true"`
	Driver string `envconfig:"COMANDA_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"COMANDA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"COMANDA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"COMANDA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"COMANDA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"COMANDA_REDIS_URL"`
	Address      string        `envconfig:"COMANDA_REDIS_ADDR"`
	Password     string        `envconfig:"COMANDA_REDIS_PASSWORD"`
	DB           int           `envconfig:"COMANDA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COMANDA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COMANDA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COMANDA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COMANDA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COMANDA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"COMANDA_GCP_PROJECT_ID" required:"true"`
}

type PubSubConfig struct {
	OrderFeedTopic           string `envconfig:"COMANDA_PUBSUB_ORDER_FEED_TOPIC" default:"comanda-ifood-order-feed"`
	OrderFeedSubscription    string `envconfig:"COMANDA_PUBSUB_ORDER_FEED_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"COMANDA_PUBSUB_NOTIFICATION_TOPIC" default:"comanda-notifications"`
	NotificationSubscription string `envconfig:"COMANDA_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type IFoodConfig struct {
	BaseURL        string        `envconfig:"COMANDA_IFOOD_BASE_URL" default:"https://merchant-api.ifood.com.br"`
	RequestTimeout time.Duration `envconfig:"COMANDA_IFOOD_REQUEST_TIMEOUT" default:"15s"`

	// AcceptanceWindow is the marketplace SLA for confirming a placed
	// order before it is auto-cancelled upstream.
	AcceptanceWindow time.Duration `envconfig:"COMANDA_IFOOD_ACCEPTANCE_WINDOW" default:"8m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"COMANDA_AUTO_MIGRATE" default:"false"`
}
