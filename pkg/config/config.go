package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Shop         ShopConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	CORS         CORSConfig
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
	Env          string `envconfig:"RETAIL_APP_ENV" required:"true"`
	Port         string `envconfig:"RETAIL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RETAIL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RETAIL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"RETAIL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"RETAIL_DB_DSN"`
	Driver string `envconfig:"RETAIL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RETAIL_DB_HOST"`
	LegacyPort     int    `envconfig:"RETAIL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RETAIL_DB_USER"`
	LegacyPassword string `envconfig:"RETAIL_DB_PASSWORD"`
	LegacyName     string `envconfig:"RETAIL_DB_NAME"`
	LegacySSLMode  string `envconfig:"RETAIL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RETAIL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RETAIL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RETAIL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RETAIL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RETAIL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RETAIL_REDIS_ADDR"`
	Password     string        `envconfig:"RETAIL_REDIS_PASSWORD"`
	DB           int           `envconfig:"RETAIL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RETAIL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RETAIL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RETAIL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RETAIL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RETAIL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the verification settings for bearer tokens minted by the
// identity service.
type JWTConfig struct {
	Secret string `envconfig:"RETAIL_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"RETAIL_JWT_ISSUER" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RETAIL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RETAIL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RETAIL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RETAIL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RETAIL_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	AnonPerSecond      int           `envconfig:"RETAIL_RATE_LIMIT_ANON_PER_SECOND" default:"5"`
	UserPerSecond      int           `envconfig:"RETAIL_RATE_LIMIT_USER_PER_SECOND" default:"30"`
	RegisterWindow     time.Duration `envconfig:"RETAIL_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"RETAIL_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"RETAIL_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	ResetWindow        time.Duration `envconfig:"RETAIL_RATE_LIMIT_RESET_WINDOW" default:"15m"`
	ResetEmailLimit    int           `envconfig:"RETAIL_RATE_LIMIT_RESET_EMAIL_LIMIT" default:"3"`
	ResetIPLimit       int           `envconfig:"RETAIL_RATE_LIMIT_RESET_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RETAIL_AUTO_MIGRATE" default:"false"`
}

// ShopConfig carries storefront settings used when building outbound
// messages and when expiring carts and tokens.
type ShopConfig struct {
	PublicBaseURL  string        `envconfig:"RETAIL_PUBLIC_BASE_URL" default:"http://localhost:8080"`
	TokenTTL       time.Duration `envconfig:"RETAIL_CONFIRM_TOKEN_TTL" default:"72h"`
	CartStaleDays  int           `envconfig:"RETAIL_CART_STALE_DAYS" default:"30"`
	IdempotencyTTL time.Duration `envconfig:"RETAIL_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"RETAIL_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"RETAIL_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"RETAIL_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	EmailTopic        string `envconfig:"RETAIL_PUBSUB_EMAIL_TOPIC" default:"retail-email-requests"`
	EmailSubscription string `envconfig:"RETAIL_PUBSUB_EMAIL_SUBSCRIPTION"`
	OrdersTopic       string `envconfig:"RETAIL_PUBSUB_ORDERS_TOPIC" default:"retail-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"RETAIL_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"RETAIL_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"RETAIL_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"RETAIL_OUTBOX_RETENTION_DAYS" default:"30"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"RETAIL_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"RETAIL_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"RETAIL_CRON_LOCK_TTL" default:"30m"`
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
