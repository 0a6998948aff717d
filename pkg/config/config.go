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
	DB           DBConfig
	Redis        RedisConfig
	Cache        CacheConfig
	Stripe       StripeConfig
	Sendgrid     SendgridConfig
	Admin        AdminConfig
	Password     PasswordConfig
	Storage      StorageConfig
	Downloads    DownloadConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"PIXELVAULT_APP_ENV" required:"true"`
	Port         string `envconfig:"PIXELVAULT_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"PIXELVAULT_APP_BASE_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"PIXELVAULT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PIXELVAULT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PIXELVAULT_DB_DSN"`
	Driver string `envconfig:"PIXELVAULT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PIXELVAULT_DB_HOST"`
	LegacyPort     int    `envconfig:"PIXELVAULT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PIXELVAULT_DB_USER"`
	LegacyPassword string `envconfig:"PIXELVAULT_DB_PASSWORD"`
	LegacyName     string `envconfig:"PIXELVAULT_DB_NAME"`
	LegacySSLMode  string `envconfig:"PIXELVAULT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PIXELVAULT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PIXELVAULT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PIXELVAULT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PIXELVAULT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PIXELVAULT_REDIS_URL"`
	Address      string        `envconfig:"PIXELVAULT_REDIS_ADDR"`
	Password     string        `envconfig:"PIXELVAULT_REDIS_PASSWORD"`
	DB           int           `envconfig:"PIXELVAULT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PIXELVAULT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PIXELVAULT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PIXELVAULT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PIXELVAULT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PIXELVAULT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type CacheConfig struct {
	StorefrontTTL time.Duration `envconfig:"PIXELVAULT_CACHE_STOREFRONT_TTL" default:"24h"`
}

type StripeConfig struct {
	APIKey string `envconfig:"PIXELVAULT_STRIPE_API_KEY"`
	Secret string `envconfig:"PIXELVAULT_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"PIXELVAULT_STRIPE_ENV" default:"test"`
}

// Environment reports the configured Stripe environment.
func (s StripeConfig) Environment() string {
	return s.Env
}

type SendgridConfig struct {
	APIKey      string `envconfig:"PIXELVAULT_SENDGRID_API_KEY"`
	SenderEmail string `envconfig:"PIXELVAULT_SENDER_EMAIL" default:"support@pixelvault.dev"`
	SenderName  string `envconfig:"PIXELVAULT_SENDER_NAME" default:"Support"`
}

type AdminConfig struct {
	Username     string `envconfig:"PIXELVAULT_ADMIN_USERNAME" required:"true"`
	PasswordHash string `envconfig:"PIXELVAULT_ADMIN_PASSWORD_HASH" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PIXELVAULT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PIXELVAULT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PIXELVAULT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PIXELVAULT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PIXELVAULT_ARGON_KEY_LEN" default:"32"`
}

type StorageConfig struct {
	FilesDir  string `envconfig:"PIXELVAULT_FILES_DIR" default:"products"`
	ImagesDir string `envconfig:"PIXELVAULT_IMAGES_DIR" default:"public/products"`
}

type DownloadConfig struct {
	LinkTTL       time.Duration `envconfig:"PIXELVAULT_DOWNLOAD_LINK_TTL" default:"24h"`
	SweepInterval time.Duration `envconfig:"PIXELVAULT_DOWNLOAD_SWEEP_INTERVAL" default:"1h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PIXELVAULT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PIXELVAULT_AUTO_MIGRATE" default:"false"`
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

	query := url.Values{}
	query.Set("sslmode", db.LegacySSLMode)
	u.RawQuery = query.Encode()

	db.DSN = u.String()
	return nil
}
