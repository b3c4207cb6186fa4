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
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Orders        OrdersConfig
	Payments      PaymentsConfig
	Live          LiveConfig
	CORS          CORSConfig
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
	Env          string `envconfig:"PAYTRACK_APP_ENV" required:"true"`
	Port         string `envconfig:"PAYTRACK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PAYTRACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PAYTRACK_LOG_WARN_STACK" default:"false"`
	// ShutdownTimeout bounds graceful shutdown of the HTTP server.
	ShutdownTimeout time.Duration `envconfig:"PAYTRACK_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN string `envconfig:"PAYTRACK_DB_DSN"`

	LegacyHost     string `envconfig:"PAYTRACK_DB_HOST"`
	LegacyPort     int    `envconfig:"PAYTRACK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PAYTRACK_DB_USER"`
	LegacyPassword string `envconfig:"PAYTRACK_DB_PASSWORD"`
	LegacyName     string `envconfig:"PAYTRACK_DB_NAME"`
	LegacySSLMode  string `envconfig:"PAYTRACK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PAYTRACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PAYTRACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PAYTRACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PAYTRACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PAYTRACK_REDIS_URL"`
	Address      string        `envconfig:"PAYTRACK_REDIS_ADDR"`
	Password     string        `envconfig:"PAYTRACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"PAYTRACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PAYTRACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PAYTRACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PAYTRACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PAYTRACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PAYTRACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PAYTRACK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PAYTRACK_JWT_ISSUER" default:"paytrack"`
	ExpirationMinutes int    `envconfig:"PAYTRACK_JWT_EXPIRATION_MINUTES" default:"60"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PAYTRACK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PAYTRACK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PAYTRACK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PAYTRACK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PAYTRACK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PAYTRACK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginPhoneLimit    int           `envconfig:"PAYTRACK_AUTH_RATE_LIMIT_LOGIN_PHONE_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PAYTRACK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PAYTRACK_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterPhoneLimit int           `envconfig:"PAYTRACK_AUTH_RATE_LIMIT_REGISTER_PHONE_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PAYTRACK_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PAYTRACK_AUTO_MIGRATE" default:"false"`
}

// OrdersConfig holds order lifecycle policy switches.
type OrdersConfig struct {
	// AllowStatusRetransition lets a decided order be accepted or rejected again.
	AllowStatusRetransition bool `envconfig:"PAYTRACK_ORDERS_ALLOW_STATUS_RETRANSITION" default:"false"`
}

// PaymentsConfig holds payment lifecycle policy switches.
type PaymentsConfig struct {
	EnforceRemainingAmountCap bool `envconfig:"PAYTRACK_PAYMENTS_ENFORCE_REMAINING_AMOUNT_CAP" default:"true"`
	ScopePending              bool `envconfig:"PAYTRACK_PAYMENTS_SCOPE_PENDING" default:"false"`
}

type LiveConfig struct {
	PingInterval   time.Duration `envconfig:"PAYTRACK_LIVE_PING_INTERVAL" default:"30s"`
	WriteTimeout   time.Duration `envconfig:"PAYTRACK_LIVE_WRITE_TIMEOUT" default:"10s"`
	AllowedOrigins []string      `envconfig:"PAYTRACK_LIVE_ALLOWED_ORIGINS"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PAYTRACK_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
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
