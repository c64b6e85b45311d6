package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "RESTO"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names shared with tests and deploy tooling.
const (
	EnvAppEnv     = "RESTO_APP_ENV"
	EnvPort       = "RESTO_APP_PORT"
	EnvDBDSN      = "RESTO_DB_DSN"
	EnvDBHost     = "RESTO_DB_HOST"
	EnvDBUser     = "RESTO_DB_USER"
	EnvDBName     = "RESTO_DB_NAME"
	EnvRedisURL   = "RESTO_REDIS_URL"
	EnvJWTSecret  = "RESTO_JWT_SECRET"
	EnvJWTIssuer  = "RESTO_JWT_ISSUER"
	EnvJWTExpMins = "RESTO_JWT_EXPIRATION_MINUTES"

	EnvMpesaConsumerKey    = "RESTO_MPESA_CONSUMER_KEY"
	EnvMpesaConsumerSecret = "RESTO_MPESA_CONSUMER_SECRET"
	EnvMpesaShortCode      = "RESTO_MPESA_SHORTCODE"
	EnvMpesaPasskey        = "RESTO_MPESA_PASSKEY"
	EnvMpesaCallbackURL    = "RESTO_MPESA_CALLBACK_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
