package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"dataplatform/internal/upload"
)

// DatabaseConfig holds PostgreSQL database connection settings.
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
// PublicURL is the base used to build the externally reachable path of a
// stored object; when empty it is derived from Endpoint and UseSSL.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// UploadConfig holds limits for file uploads and spreadsheet imports.
type UploadConfig struct {
	MaxFileSize int64
	KeyPrefix   string
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string
	Format string
}

// ShareConfig holds settings for pulling files from the remote share service.
type ShareConfig struct {
	BaseURL      string
	ShareCode    string
	LockFileName string
	RemoteDir    string
	OutputDir    string
	NameSuffix   string
	Timeout      time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Upload   UploadConfig
	Log      LogConfig
	Share    ShareConfig
}

// DefaultMaxFileSize is the upload ceiling: 3 MiB.
const DefaultMaxFileSize int64 = upload.DefaultMaxSize

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"),
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
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			PublicURL: strings.TrimRight(getEnv("MINIO_PUBLIC_URL", ""), "/"),
		},
		Upload: UploadConfig{
			MaxFileSize: getEnvInt64("UPLOAD_MAX_FILE_SIZE", DefaultMaxFileSize),
			KeyPrefix:   getEnv("UPLOAD_KEY_PREFIX", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Share: ShareConfig{
			BaseURL:      strings.TrimRight(getEnv("SHARE_BASE_URL", ""), "/"),
			ShareCode:    getEnv("SHARE_CODE", ""),
			LockFileName: getEnv("SHARE_LOCK_FILE_NAME", ""),
			RemoteDir:    getEnv("SHARE_REMOTE_DIR", "/public/home/sharedir/post"),
			OutputDir:    getEnv("SHARE_OUTPUT_DIR", "."),
			NameSuffix:   getEnv("SHARE_NAME_SUFFIX", "12"),
			Timeout:      getEnvDuration("SHARE_TIMEOUT", 0),
		},
	}
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

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil && i > 0 {
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
