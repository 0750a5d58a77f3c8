package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL settings for the document index.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// StorageConfig selects and configures the document storage backend.
type StorageConfig struct {
	// Backend is either "filesystem" or "minio".
	Backend string
	// Root is the flat directory holding <id>.<ext> files for the filesystem backend.
	Root string
	// MaxDocumentBytes bounds the accepted PutFile request body.
	MaxDocumentBytes int
	MinIO            MinIOConfig
}

// ResolverConfig selects how document ids are mapped to storage objects.
type ResolverConfig struct {
	// Strategy is "scan" (list the storage root) or "index" (Postgres lookup).
	Strategy string
	// Strict rejects ids that match more than one object instead of taking the first.
	Strict bool
}

// LockConfig controls how concurrent PutFile calls for the same id are serialized.
type LockConfig struct {
	// Mode is "local", "redis" or "none".
	Mode  string
	TTL   time.Duration
	Retry time.Duration
}

// RedisConfig holds connection settings for the redis lock backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// IdentityConfig holds the placeholder caller identity reported by CheckFileInfo.
type IdentityConfig struct {
	UserID   string
	CanWrite bool

	// UserIDNumeric sends an integer UserID as a JSON number instead of a string.
	UserIDNumeric bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
// LogFile, when set, receives a rotated copy of every log line.
type AppConfig struct {
	AppHost          string
	Port             string
	TimeZone         string
	LogLevel         string
	LogFile          string
	StaticDir        string
	CORSAllowOrigins string
	Storage          StorageConfig
	Resolver         ResolverConfig
	Lock             LockConfig
	Redis            RedisConfig
	Identity         IdentityConfig
	Database         DatabaseConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:          getEnv("APP_HOST", "localhost:8080"),
		Port:             getEnv("PORT", "8080"),
		TimeZone:         getEnv("APP_TIMEZONE", "UTC"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          getEnv("LOG_FILE", ""),
		StaticDir:        getEnv("STATIC_DIR", ""),
		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
		Storage: StorageConfig{
			Backend:          getEnv("STORAGE_BACKEND", "filesystem"),
			Root:             getEnv("STORAGE_ROOT", "./data"),
			MaxDocumentBytes: getEnvInt("MAX_DOCUMENT_BYTES", 50*1024*1024),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", ""),
				Prefix:    getEnv("MINIO_PREFIX", ""),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
		},
		Resolver: ResolverConfig{
			Strategy: getEnv("RESOLVER", "scan"),
			Strict:   getEnvBool("RESOLVER_STRICT", false),
		},
		Lock: LockConfig{
			Mode:  getEnv("LOCK_MODE", "local"),
			TTL:   getEnvDuration("LOCK_TTL", 30*time.Second),
			Retry: getEnvDuration("LOCK_RETRY", 50*time.Millisecond),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Identity: IdentityConfig{
			UserID:        getEnv("WOPI_USER_ID", "1"),
			CanWrite:      getEnvBool("WOPI_USER_CAN_WRITE", true),
			UserIDNumeric: getEnvBool("WOPI_USER_ID_NUMERIC", false),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
	}
}

// Location returns the configured time zone, falling back to UTC when it cannot be loaded.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
