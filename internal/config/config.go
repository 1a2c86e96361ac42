package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DB      DBConfig
	MinIO   MinIOConfig
	JWT     JWTConfig
	Server  ServerConfig
	Storage StorageConfig
	Upload  UploadConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Port    string
	BaseURL string
}

// StorageConfig selects the object-store backend for completed files.
// Backend is either "minio" or "local".
type StorageConfig struct {
	Backend  string
	LocalDir string
}

// UploadConfig bounds the chunked-upload protocol and controls where
// in-flight chunks and session state live.
type UploadConfig struct {
	TempDir        string
	MaxChunkSize   int64
	MaxFileSize    int64
	SessionTTL     time.Duration
	SweepInterval  time.Duration
	SessionBackend string // "memory" or "badger"
	BadgerDir      string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "clouddrive"),
			Password: getEnv("DB_PASSWORD", "clouddrive_secret"),
			Name:     getEnv("DB_NAME", "clouddrive"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "clouddrive"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "clouddrive_secret"),
			Bucket:    getEnv("MINIO_BUCKET", "clouddrive"),
			UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Server: ServerConfig{
			Port:    getEnv("SERVER_PORT", "8080"),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8080"),
		},
		Storage: StorageConfig{
			Backend:  getEnv("STORAGE_BACKEND", "minio"),
			LocalDir: getEnv("STORAGE_LOCAL_DIR", "uploads"),
		},
		Upload: UploadConfig{
			TempDir:        getEnv("UPLOAD_TEMP_DIR", "uploads/temp"),
			MaxChunkSize:   getEnvAsInt64("UPLOAD_MAX_CHUNK_SIZE", 5*1024*1024),
			MaxFileSize:    getEnvAsInt64("UPLOAD_MAX_FILE_SIZE", 2*1024*1024*1024),
			SessionTTL:     getEnvAsDuration("UPLOAD_SESSION_TTL", 24*time.Hour),
			SweepInterval:  getEnvAsDuration("UPLOAD_SWEEP_INTERVAL", 15*time.Minute),
			SessionBackend: getEnv("UPLOAD_SESSION_BACKEND", "memory"),
			BadgerDir:      getEnv("UPLOAD_BADGER_DIR", "uploads/sessions"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
