package config

// EnvPrefix is the envconfig prefix shared by every service binary.
const EnvPrefix = "VENDALIVRE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "VENDALIVRE_APP_ENV"
	EnvPort                   = "VENDALIVRE_APP_PORT"
	EnvDBDSN                  = "VENDALIVRE_DB_DSN"
	EnvDBHost                 = "VENDALIVRE_DB_HOST"
	EnvDBUser                 = "VENDALIVRE_DB_USER"
	EnvDBName                 = "VENDALIVRE_DB_NAME"
	EnvRedisURL               = "VENDALIVRE_REDIS_URL"
	EnvJWTSecret              = "VENDALIVRE_JWT_SECRET"
	EnvJWTIssuer              = "VENDALIVRE_JWT_ISSUER"
	EnvJWTExpMins             = "VENDALIVRE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "VENDALIVRE_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID           = "VENDALIVRE_GCP_PROJECT_ID"
	EnvPagarmeAPIKey          = "VENDALIVRE_PAGARME_API_KEY"
	EnvPubSubSettlementSub    = "VENDALIVRE_PUBSUB_SETTLEMENT_SUBSCRIPTION"
)

// legacyDBEnvVars are the discrete connection vars accepted when no DSN is set.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
