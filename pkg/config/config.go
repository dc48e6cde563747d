package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Pagarme       PagarmeConfig
	Platform      PlatformConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VENDALIVRE_APP_ENV" required:"true"`
	Port         string `envconfig:"VENDALIVRE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VENDALIVRE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VENDALIVRE_LOG_WARN_STACK" default:"false"`
	FrontendURL  string `envconfig:"VENDALIVRE_FRONTEND_URL" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VENDALIVRE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"VENDALIVRE_DB_DSN"`
	Driver string `envconfig:"VENDALIVRE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VENDALIVRE_DB_HOST"`
	LegacyPort     int    `envconfig:"VENDALIVRE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VENDALIVRE_DB_USER"`
	LegacyPassword string `envconfig:"VENDALIVRE_DB_PASSWORD"`
	LegacyName     string `envconfig:"VENDALIVRE_DB_NAME"`
	LegacySSLMode  string `envconfig:"VENDALIVRE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VENDALIVRE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENDALIVRE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENDALIVRE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENDALIVRE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VENDALIVRE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VENDALIVRE_REDIS_ADDR"`
	Password     string        `envconfig:"VENDALIVRE_REDIS_PASSWORD"`
	DB           int           `envconfig:"VENDALIVRE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VENDALIVRE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VENDALIVRE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VENDALIVRE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VENDALIVRE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VENDALIVRE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"VENDALIVRE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"VENDALIVRE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"VENDALIVRE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"VENDALIVRE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VENDALIVRE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VENDALIVRE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VENDALIVRE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VENDALIVRE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VENDALIVRE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"VENDALIVRE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"VENDALIVRE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"VENDALIVRE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"VENDALIVRE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"VENDALIVRE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"VENDALIVRE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VENDALIVRE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VENDALIVRE_AUTO_MIGRATE" default:"false"`
}

type PagarmeConfig struct {
	APIKey           string        `envconfig:"VENDALIVRE_PAGARME_API_KEY" required:"true"`
	BaseURL          string        `envconfig:"VENDALIVRE_PAGARME_BASE_URL" default:"https://api.pagar.me/core/v5"`
	Timeout          time.Duration `envconfig:"VENDALIVRE_PAGARME_TIMEOUT" default:"30s"`
	WebhookSecret    string        `envconfig:"VENDALIVRE_PAGARME_WEBHOOK_SECRET"`
	WebhookDedupeTTL time.Duration `envconfig:"VENDALIVRE_PAGARME_WEBHOOK_DEDUPE_TTL" default:"24h"`
	PixExpirySeconds int           `envconfig:"VENDALIVRE_PAGARME_PIX_EXPIRES_IN" default:"3600"`
}

type PlatformConfig struct {
	// DefaultFeePercent is applied when platform_settings has no override.
	DefaultFeePercent   int           `envconfig:"VENDALIVRE_PLATFORM_FEE_PERCENT" default:"15"`
	PlatformRecipientID string        `envconfig:"VENDALIVRE_PLATFORM_RECIPIENT_ID"`
	PendingOrderMaxAge  time.Duration `envconfig:"VENDALIVRE_PENDING_ORDER_MAX_AGE" default:"24h"`
	// CreditCardDisabled turns the card rail off without a deploy.
	CreditCardDisabled bool `envconfig:"VENDALIVRE_PLATFORM_CREDIT_CARD_DISABLED" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"VENDALIVRE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"VENDALIVRE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"VENDALIVRE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	SettlementTopic        string `envconfig:"VENDALIVRE_PUBSUB_SETTLEMENT_TOPIC" default:"vl-settlement-events"`
	SettlementSubscription string `envconfig:"VENDALIVRE_PUBSUB_SETTLEMENT_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"VENDALIVRE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"VENDALIVRE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"VENDALIVRE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"VENDALIVRE_OUTBOX_RETENTION" default:"720h"`
}

type CronConfig struct {
	Interval           time.Duration `envconfig:"VENDALIVRE_CRON_INTERVAL" default:"1m"`
	ReconcileBatchSize int           `envconfig:"VENDALIVRE_CRON_RECONCILE_BATCH_SIZE" default:"50"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
