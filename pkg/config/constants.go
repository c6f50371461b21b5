package config

// EnvPrefix is passed to envconfig; every field carries its full name so the
// prefix only matters for the split-words fallback.
const EnvPrefix = "RETAIL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "RETAIL_APP_ENV"
	EnvPort     = "RETAIL_APP_PORT"
	EnvLogLevel = "RETAIL_LOG_LEVEL"

	EnvDBDSN      = "RETAIL_DB_DSN"
	EnvDBHost     = "RETAIL_DB_HOST"
	EnvDBPort     = "RETAIL_DB_PORT"
	EnvDBUser     = "RETAIL_DB_USER"
	EnvDBPassword = "RETAIL_DB_PASSWORD"
	EnvDBName     = "RETAIL_DB_NAME"

	EnvRedisURL = "RETAIL_REDIS_URL"

	EnvJWTSecret = "RETAIL_JWT_SECRET"
	EnvJWTIssuer = "RETAIL_JWT_ISSUER"

	EnvAutoMigrate     = "RETAIL_AUTO_MIGRATE"
	EnvPublicBaseURL   = "RETAIL_PUBLIC_BASE_URL"
	EnvRateLimitAnon   = "RETAIL_RATE_LIMIT_ANON_PER_SECOND"
	EnvRateLimitUser   = "RETAIL_RATE_LIMIT_USER_PER_SECOND"
	EnvGCPProjectID    = "RETAIL_GCP_PROJECT_ID"
	EnvPubSubEmailTop  = "RETAIL_PUBSUB_EMAIL_TOPIC"
	EnvPubSubOrdersTop = "RETAIL_PUBSUB_ORDERS_TOPIC"
	EnvCORSOrigins     = "RETAIL_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
