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
	Admin         AdminConfig
	AuthRateLimit AuthRateLimitConfig
	Mpesa         MpesaConfig
	Webhook       WebhookConfig
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
	Env          string `envconfig:"RESTO_APP_ENV" required:"true"`
	Port         string `envconfig:"RESTO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RESTO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RESTO_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"RESTO_APP_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RESTO_DB_DSN"`
	Driver string `envconfig:"RESTO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RESTO_DB_HOST"`
	LegacyPort     int    `envconfig:"RESTO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RESTO_DB_USER"`
	LegacyPassword string `envconfig:"RESTO_DB_PASSWORD"`
	LegacyName     string `envconfig:"RESTO_DB_NAME"`
	LegacySSLMode  string `envconfig:"RESTO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RESTO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RESTO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RESTO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RESTO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RESTO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RESTO_REDIS_ADDR"`
	Password     string        `envconfig:"RESTO_REDIS_PASSWORD"`
	DB           int           `envconfig:"RESTO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RESTO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RESTO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RESTO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RESTO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RESTO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RESTO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RESTO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RESTO_JWT_EXPIRATION_MINUTES" required:"true"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"RESTO_LOGIN_RATE_WINDOW" default:"5m"`
	LoginIPLimit    int           `envconfig:"RESTO_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"RESTO_LOGIN_RATE_EMAIL_LIMIT" default:"10"`
}

// AdminConfig controls first-boot admin seeding. Seeding is skipped when
// Email is empty; a blank Password gets a generated one, logged once.
type AdminConfig struct {
	Email    string `envconfig:"RESTO_ADMIN_EMAIL"`
	Name     string `envconfig:"RESTO_ADMIN_NAME" default:"Administrator"`
	Password string `envconfig:"RESTO_ADMIN_PASSWORD"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RESTO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RESTO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RESTO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RESTO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RESTO_ARGON_KEY_LEN" default:"32"`
}

// MpesaConfig holds Daraja gateway credentials. None of the fields is required
// at startup: a deployment without merchant credentials still serves the
// dashboard, and push attempts surface the gap as an initiation failure.
type MpesaConfig struct {
	Env              string        `envconfig:"RESTO_MPESA_ENV" default:"sandbox"`
	ConsumerKey      string        `envconfig:"RESTO_MPESA_CONSUMER_KEY"`
	ConsumerSecret   string        `envconfig:"RESTO_MPESA_CONSUMER_SECRET"`
	ShortCode        string        `envconfig:"RESTO_MPESA_SHORTCODE"`
	Passkey          string        `envconfig:"RESTO_MPESA_PASSKEY"`
	CallbackURL      string        `envconfig:"RESTO_MPESA_CALLBACK_URL"`
	AccountReference string        `envconfig:"RESTO_MPESA_ACCOUNT_REFERENCE" default:"Reservation"`
	TransactionDesc  string        `envconfig:"RESTO_MPESA_TRANSACTION_DESC" default:"Pre-order"`
	HTTPTimeout      time.Duration `envconfig:"RESTO_MPESA_HTTP_TIMEOUT" default:"30s"`
	TokenLeeway      time.Duration `envconfig:"RESTO_MPESA_TOKEN_LEEWAY" default:"60s"`
}

// Environment returns the normalized Daraja environment (sandbox/production).
func (m MpesaConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(m.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type WebhookConfig struct {
	DedupTTL           time.Duration `envconfig:"RESTO_WEBHOOK_DEDUP_TTL" default:"24h"`
	LookupRetries      int           `envconfig:"RESTO_WEBHOOK_LOOKUP_RETRIES" default:"3"`
	LookupRetryBackoff time.Duration `envconfig:"RESTO_WEBHOOK_LOOKUP_BACKOFF" default:"200ms"`
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
