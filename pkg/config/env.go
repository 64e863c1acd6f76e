package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv     = "STOREFRONT_APP_ENV"
	EnvPort       = "STOREFRONT_APP_PORT"
	EnvBaseURL    = "STOREFRONT_BASE_URL"
	EnvLogLevel   = "STOREFRONT_LOG_LEVEL"
	EnvUseSQLite  = "STOREFRONT_USE_SQLITE"
	EnvSQLitePath = "STOREFRONT_DB_SQLITE_PATH"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvSessionTTL = "STOREFRONT_SESSION_TTL"

	EnvJWTSecret  = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins = "STOREFRONT_JWT_EXPIRATION_MINUTES"

	EnvStripeAPIKey   = "STOREFRONT_STRIPE_API_KEY"
	EnvStripeSecret   = "STOREFRONT_STRIPE_SECRET"
	EnvStripeEnv      = "STOREFRONT_STRIPE_ENV"
	EnvStripeCurrency = "STOREFRONT_STRIPE_CURRENCY"

	EnvAdminUser     = "ADMIN_USER"
	EnvAdminEmail    = "ADMIN_EMAIL"
	EnvAdminPassword = "ADMIN_PASSWORD"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
