package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Output   OutputConfig   `mapstructure:"output"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Database DatabaseConfig `mapstructure:"database"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// APIConfig holds alkoteka web API configuration
type APIConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Timeout   int    `mapstructure:"timeout"`
	UserAgent string `mapstructure:"user_agent"`
}

// CacheConfig selects the metadata cache backend
type CacheConfig struct {
	Backend string `mapstructure:"backend"` // "file" or "redis"
	Dir     string `mapstructure:"dir"`
}

// RedisConfig holds Redis connection details for the redis cache backend
type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	Database  int    `mapstructure:"database"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// OutputConfig controls where and how the product stream is written
type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Prefix string `mapstructure:"prefix"`
}

// FetchConfig bounds the pagination walk
type FetchConfig struct {
	PerPage  int `mapstructure:"per_page"`
	MaxPages int `mapstructure:"max_pages"`
}

// DatabaseConfig holds the optional Postgres sink configuration
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// DefaultsConfig holds fallback values for the operational flags
type DefaultsConfig struct {
	City     string `mapstructure:"city"`
	Category string `mapstructure:"category"`
}

// Load loads configuration from YAML file with environment variable overrides.
// A missing config.yaml is not an error: defaults let the tool run as-is.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("api.base_url", "https://alkoteka.com/web-api/v1")
	viper.SetDefault("api.timeout", 60)
	viper.SetDefault("api.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	viper.SetDefault("cache.backend", "file")
	viper.SetDefault("cache.dir", "cache")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.database", 0)
	viper.SetDefault("redis.key_prefix", "alkoteka:cache:")

	viper.SetDefault("output.dir", ".")
	viper.SetDefault("output.prefix", "alkoteka")

	viper.SetDefault("fetch.per_page", 20)
	viper.SetDefault("fetch.max_pages", 500)

	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "alkoteka")
	viper.SetDefault("database.user", "alkoteka_user")
	viper.SetDefault("database.password", "alkoteka_pass")

	viper.SetDefault("defaults.city", "Краснодар")
	viper.SetDefault("defaults.category", "vino")
}
