package config

const (
	// EnvPrefix is empty because every tag already carries the full PAYTRACK_ name.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv     = "PAYTRACK_APP_ENV"
	EnvPort       = "PAYTRACK_APP_PORT"
	EnvDBDSN      = "PAYTRACK_DB_DSN"
	EnvDBHost     = "PAYTRACK_DB_HOST"
	EnvDBUser     = "PAYTRACK_DB_USER"
	EnvDBName     = "PAYTRACK_DB_NAME"
	EnvDBPassword = "PAYTRACK_DB_PASSWORD"
	EnvRedisURL   = "PAYTRACK_REDIS_URL"
	EnvJWTSecret  = "PAYTRACK_JWT_SECRET"
	EnvJWTIssuer  = "PAYTRACK_JWT_ISSUER"
	EnvJWTExpMins = "PAYTRACK_JWT_EXPIRATION_MINUTES"

	EnvEnforceRemainingCap = "PAYTRACK_PAYMENTS_ENFORCE_REMAINING_AMOUNT_CAP"
	EnvScopePending        = "PAYTRACK_PAYMENTS_SCOPE_PENDING"
	EnvAllowRetransition   = "PAYTRACK_ORDERS_ALLOW_STATUS_RETRANSITION"
	EnvLivePingInterval    = "PAYTRACK_LIVE_PING_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
