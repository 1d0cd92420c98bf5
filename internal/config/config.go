// backend-go/internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Storage    StorageConfig
	Forecaster ForecasterConfig
	Insight    InsightConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	ResultTTLSeconds int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

type ForecasterConfig struct {
	EndpointURL      string
	TimeoutSeconds   int
	ContextLength    int
	PredictionLength int
	MinHistoryPoints int
}

type InsightConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	TimeoutSeconds int
	MaxTokens      int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "demandcast")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_RESULT_TTL_SECONDS", 3600)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "order-data")
		viper.SetDefault("STORAGE_PREFIX", "orders/")
		viper.SetDefault("STORAGE_USE_SSL", true)
		viper.SetDefault("FORECASTER_ENDPOINT_URL", "")
		viper.SetDefault("FORECASTER_TIMEOUT_SECONDS", 30)
		viper.SetDefault("FORECASTER_CONTEXT_LENGTH", 28)
		viper.SetDefault("FORECASTER_PREDICTION_LENGTH", 14)
		viper.SetDefault("FORECASTER_MIN_HISTORY_POINTS", 3)
		viper.SetDefault("INSIGHT_BASE_URL", "")
		viper.SetDefault("INSIGHT_API_KEY", "")
		viper.SetDefault("INSIGHT_MODEL", "gpt-4o-mini")
		viper.SetDefault("INSIGHT_TIMEOUT_SECONDS", 30)
		viper.SetDefault("INSIGHT_MAX_TOKENS", 1500)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:          viper.GetBool("CACHE_ENABLED"),
				RedisURL:         viper.GetString("REDIS_URL"),
				RedisHost:        viper.GetString("REDIS_HOST"),
				RedisPort:        viper.GetString("REDIS_PORT"),
				RedisPassword:    viper.GetString("REDIS_PASSWORD"),
				RedisDB:          viper.GetInt("REDIS_DB"),
				ResultTTLSeconds: viper.GetInt("CACHE_RESULT_TTL_SECONDS"),
			},
			Storage: StorageConfig{
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Prefix:    viper.GetString("STORAGE_PREFIX"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
			Forecaster: ForecasterConfig{
				EndpointURL:      viper.GetString("FORECASTER_ENDPOINT_URL"),
				TimeoutSeconds:   viper.GetInt("FORECASTER_TIMEOUT_SECONDS"),
				ContextLength:    viper.GetInt("FORECASTER_CONTEXT_LENGTH"),
				PredictionLength: viper.GetInt("FORECASTER_PREDICTION_LENGTH"),
				MinHistoryPoints: viper.GetInt("FORECASTER_MIN_HISTORY_POINTS"),
			},
			Insight: InsightConfig{
				BaseURL:        viper.GetString("INSIGHT_BASE_URL"),
				APIKey:         viper.GetString("INSIGHT_API_KEY"),
				Model:          viper.GetString("INSIGHT_MODEL"),
				TimeoutSeconds: viper.GetInt("INSIGHT_TIMEOUT_SECONDS"),
				MaxTokens:      viper.GetInt("INSIGHT_MAX_TOKENS"),
			},
		}
	})

	return instance
}
