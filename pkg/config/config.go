package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix  = ""
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Fees     FeeConfig
	Gateway  GatewayConfig
	GCP      GCPConfig
	GCS      GCSConfig
	Stream   StreamConfig
	Progress ProgressConfig
	PubSub   PubSubConfig
	Outbox   OutboxConfig
	Flags    FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Fees.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PLAYGATE_APP_ENV" required:"true"`
	Port         string `envconfig:"PLAYGATE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PLAYGATE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PLAYGATE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PLAYGATE_DB_DSN"`
	Driver string `envconfig:"PLAYGATE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"PLAYGATE_DB_HOST"`
	Port     int    `envconfig:"PLAYGATE_DB_PORT" default:"5432"`
	User     string `envconfig:"PLAYGATE_DB_USER"`
	Password string `envconfig:"PLAYGATE_DB_PASSWORD"`
	Name     string `envconfig:"PLAYGATE_DB_NAME"`
	SSLMode  string `envconfig:"PLAYGATE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PLAYGATE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PLAYGATE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PLAYGATE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PLAYGATE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.Host == "" || db.User == "" || db.Name == "" {
		return fmt.Errorf("either PLAYGATE_DB_DSN or host/user/name settings are required")
	}
	db.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(db.User),
		url.QueryEscape(db.Password),
		db.Host,
		db.Port,
		db.Name,
		db.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"PLAYGATE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PLAYGATE_REDIS_ADDR"`
	Password     string        `envconfig:"PLAYGATE_REDIS_PASSWORD"`
	DB           int           `envconfig:"PLAYGATE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PLAYGATE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PLAYGATE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PLAYGATE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PLAYGATE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PLAYGATE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PLAYGATE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PLAYGATE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PLAYGATE_JWT_EXPIRATION_MINUTES" default:"60"`
}

// FeeConfig carries the platform-wide revenue split defaults in basis
// points. Organizations may override either rate on their own row; the split
// calculation always receives an explicit rate pair, never a package
// constant.
type FeeConfig struct {
	PlatformRateBps     int `envconfig:"PLAYGATE_FEE_PLATFORM_RATE_BPS" default:"1000"`
	OrganizationRateBps int `envconfig:"PLAYGATE_FEE_ORGANIZATION_RATE_BPS" default:"0"`
}

func (f FeeConfig) validate() error {
	if f.PlatformRateBps < 0 || f.PlatformRateBps > 10000 {
		return fmt.Errorf("platform rate must be within [0, 10000] bps, got %d", f.PlatformRateBps)
	}
	if f.OrganizationRateBps < 0 || f.OrganizationRateBps > 10000 {
		return fmt.Errorf("organization rate must be within [0, 10000] bps, got %d", f.OrganizationRateBps)
	}
	if f.PlatformRateBps+f.OrganizationRateBps > 10000 {
		return fmt.Errorf("combined fee rates exceed 10000 bps")
	}
	return nil
}

// GatewayConfig describes the payment gateway integration.
type GatewayConfig struct {
	APIKey             string        `envconfig:"PLAYGATE_GATEWAY_API_KEY"`
	WebhookSecret      string        `envconfig:"PLAYGATE_GATEWAY_WEBHOOK_SECRET"`
	Env                string        `envconfig:"PLAYGATE_GATEWAY_ENV" default:"test"`
	SignatureTolerance time.Duration `envconfig:"PLAYGATE_GATEWAY_SIGNATURE_TOLERANCE" default:"5m"`
	CheckoutSuccessURL string        `envconfig:"PLAYGATE_GATEWAY_CHECKOUT_SUCCESS_URL"`
	CheckoutCancelURL  string        `envconfig:"PLAYGATE_GATEWAY_CHECKOUT_CANCEL_URL"`
}

// Environment returns the normalized gateway environment (test/live).
func (g GatewayConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(g.Env))
	if env == "" {
		return "test"
	}
	return env
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PLAYGATE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PLAYGATE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PLAYGATE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"PLAYGATE_GCS_BUCKET_NAME" required:"true"`
}

// StreamConfig bounds the signed streaming URLs. The TTL is clamped to
// MaxURLLifetime at issue time no matter what the environment says.
type StreamConfig struct {
	URLTTL        time.Duration `envconfig:"PLAYGATE_STREAM_URL_TTL" default:"1h"`
	SignRetries   int           `envconfig:"PLAYGATE_STREAM_SIGN_RETRIES" default:"3"`
	SignBackoff   time.Duration `envconfig:"PLAYGATE_STREAM_SIGN_BACKOFF" default:"200ms"`
	WebhookDedupe time.Duration `envconfig:"PLAYGATE_WEBHOOK_DEDUPE_TTL" default:"72h"`
}

type ProgressConfig struct {
	WriteWindow time.Duration `envconfig:"PLAYGATE_PROGRESS_WRITE_WINDOW" default:"10s"`
	WriteLimit  int64         `envconfig:"PLAYGATE_PROGRESS_WRITE_LIMIT" default:"4"`
}

type PubSubConfig struct {
	PurchaseTopic        string `envconfig:"PLAYGATE_PUBSUB_PURCHASE_TOPIC" default:"pg-purchase-events"`
	PurchaseSubscription string `envconfig:"PLAYGATE_PUBSUB_PURCHASE_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PLAYGATE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PLAYGATE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PLAYGATE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PLAYGATE_AUTO_MIGRATE" default:"false"`
}
