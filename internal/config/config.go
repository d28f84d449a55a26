package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	JWT       JWTConfig
	Upload    UploadConfig
	Catalog   CatalogConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
	SSLMode  string
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL int // in seconds
}

type RateLimitConfig struct {
	Requests int
	Window   int // in seconds
}

type JWTConfig struct {
	Secret string
}

type UploadConfig struct {
	Dir         string
	MaxMemoryMB int64
}

type CatalogConfig struct {
	StoreDriver              string
	ValidateCategoryOnUpdate bool
	CategoryDeletePolicy     string
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// Addr returns the host:port the Redis client should dial.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "3001")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "grocery")
	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_TTL_SECONDS", 300)
	viper.SetDefault("RATE_LIMIT_REQUESTS", 60)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("UPLOAD_DIR", "./public")
	viper.SetDefault("UPLOAD_MAX_MEMORY_MB", 32)
	viper.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	viper.SetDefault("CATALOG_VALIDATE_CATEGORY_ON_UPDATE", true)
	viper.SetDefault("CATALOG_CATEGORY_DELETE_POLICY", "restrict")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			LogLevel:       viper.GetString("LOG_LEVEL"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Mongo: MongoConfig{
			URI:      viper.GetString("MONGO_URI"),
			Database: viper.GetString("MONGO_DATABASE"),
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("REDIS_ENABLED"),
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			CacheTTL: viper.GetInt("CACHE_TTL_SECONDS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		Upload: UploadConfig{
			Dir:         viper.GetString("UPLOAD_DIR"),
			MaxMemoryMB: viper.GetInt64("UPLOAD_MAX_MEMORY_MB"),
		},
		Catalog: CatalogConfig{
			StoreDriver:              strings.ToLower(viper.GetString("STORE_DRIVER")),
			ValidateCategoryOnUpdate: viper.GetBool("CATALOG_VALIDATE_CATEGORY_ON_UPDATE"),
			CategoryDeletePolicy:     strings.ToLower(viper.GetString("CATALOG_CATEGORY_DELETE_POLICY")),
		},
	}
}

// Validate checks the settings that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	switch c.Catalog.StoreDriver {
	case StoreDriverPostgres:
		if c.Database.Database == "" {
			return fmt.Errorf("DB_DATABASE is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return fmt.Errorf("MONGO_URI and MONGO_DATABASE are required when STORE_DRIVER=%s", StoreDriverMongo)
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Catalog.StoreDriver)
	}

	if c.Upload.Dir == "" {
		return fmt.Errorf("UPLOAD_DIR must not be empty")
	}

	// A non-positive TTL would store the list without expiry
	if c.Redis.Enabled && c.Redis.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive when REDIS_ENABLED is set, got %d", c.Redis.CacheTTL)
	}

	return nil
}

// splitList parses a comma separated environment value.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
