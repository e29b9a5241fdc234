package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	LockBackendDB    = "db"
	LockBackendRedis = "redis"
)

const (
	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN      = "STOREFRONT_DB_DSN"
	EnvDBHost     = "STOREFRONT_DB_HOST"
	EnvDBUser     = "STOREFRONT_DB_USER"
	EnvDBPassword = "STOREFRONT_DB_PASSWORD"
	EnvDBName     = "STOREFRONT_DB_NAME"

	EnvRedisURL  = "STOREFRONT_REDIS_URL"
	EnvJWTSecret = "STOREFRONT_JWT_SECRET"

	EnvLockBackend = "STOREFRONT_LOCK_BACKEND"
	EnvLockTTL     = "STOREFRONT_LOCK_TTL"

	EnvCheckoutMaxQty        = "STOREFRONT_CHECKOUT_MAX_QTY"
	EnvFreeShippingThreshold = "STOREFRONT_FREE_SHIPPING_THRESHOLD_CENTS"
	EnvAutoCapture           = "STOREFRONT_CHECKOUT_AUTO_CAPTURE"

	EnvKafkaBrokers    = "STOREFRONT_KAFKA_BROKERS"
	EnvPendingOrderTTL = "STOREFRONT_PENDING_ORDER_TTL"
)

// legacyDBEnvVars are required when no DSN is provided.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
