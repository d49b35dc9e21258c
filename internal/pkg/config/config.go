package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	CORS    CORSConfig
	Log     LogConfig
	JWT     JWTConfig
	Cookie  CookieConfig
	Redis   RedisConfig
	Engine  EngineConfig
	Metrics MetricsConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"groupbuy"`
	Password string `envconfig:"DB_PASSWORD" default:""`
	DBName   string `envconfig:"DB_NAME" default:"groupbuy"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"Asia/Tokyo"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"20"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,Idempotency-Key"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"Asia/Tokyo"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"32400"` // 9*60*60
}

type JWTConfig struct {
	Secret   string `envconfig:"JWT_SECRET" required:"true"`
	Duration string `envconfig:"JWT_DURATION" default:"24h"`
}

type CookieConfig struct {
	Domain   string `envconfig:"COOKIE_DOMAIN" default:""`
	Secure   bool   `envconfig:"COOKIE_SECURE" default:"false"`
	SameSite string `envconfig:"COOKIE_SAME_SITE" default:"Lax"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:""`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Enabled is false when no address is configured; the QR cache is then skipped.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	ChangeBusInProc    = "inproc"
	ChangeBusRedis     = "redis"
	ChangeBusPostgres  = "postgres"
	DefaultChangeTopic = "groupbuy_changes"
)

type EngineConfig struct {
	StoreDriver    string        `envconfig:"ENGINE_STORE_DRIVER" default:"postgres"`
	ChangeBus      string        `envconfig:"ENGINE_CHANGE_BUS" default:"inproc"`
	ChangeTopic    string        `envconfig:"ENGINE_CHANGE_TOPIC" default:"groupbuy_changes"`
	SweepInterval  time.Duration `envconfig:"ENGINE_SWEEP_INTERVAL" default:"1m"`
	SweepBatchSize int           `envconfig:"ENGINE_SWEEP_BATCH_SIZE" default:"100"`
	QRCacheTTL     time.Duration `envconfig:"ENGINE_QR_CACHE_TTL" default:"10m"`
	DayTimeZone    string        `envconfig:"ENGINE_DAY_TIMEZONE" default:"Asia/Tokyo"`
	IdempotencyTTL time.Duration `envconfig:"ENGINE_IDEMPOTENCY_TTL" default:"24h"`
	// SeedPassword seeds demo users into the memory store when set.
	SeedPassword   string        `envconfig:"ENGINE_SEED_PASSWORD" default:""`
}

// DayLocation is the zone that decides the calendar day for once-per-day awards.
func (c EngineConfig) DayLocation() *time.Location {
	loc, err := time.LoadLocation(c.DayTimeZone)
	if err != nil {
		slog.Warn("unknown day time zone, falling back to UTC", "zone", c.DayTimeZone, "error", err.Error())
		return time.UTC
	}
	return loc
}

type MetricsConfig struct {
	Enabled   bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Namespace string `envconfig:"METRICS_NAMESPACE" default:"groupbuy"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

// LoadConfig reads a .env file when one exists, then the process environment.
// Values already set in the environment win over the file.
func LoadConfig() (Config, error) {
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "Asia/Tokyo",
			MaxConns: 10,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "Asia/Tokyo",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 32400,
		},
		JWT: JWTConfig{
			Secret:   "test-secret",
			Duration: "1h",
		},
		Engine: EngineConfig{
			StoreDriver:    StoreDriverMemory,
			ChangeBus:      ChangeBusInProc,
			ChangeTopic:    DefaultChangeTopic,
			SweepInterval:  time.Minute,
			SweepBatchSize: 100,
			QRCacheTTL:     10 * time.Minute,
			DayTimeZone:    "Asia/Tokyo",
			IdempotencyTTL: 24 * time.Hour,
		},
	}
}
