/**
 * @description
 * This package handles the configuration management for the credits-service.
 * It uses the Viper library to read configuration from environment variables
 * (with an optional .env file for local development), providing a centralized
 * way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the credits-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort            string `mapstructure:"SERVER_PORT"`
	DatabaseURL           string `mapstructure:"DATABASE_URL"`
	RedisURL              string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix  string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL           string `mapstructure:"RABBITMQ_URL"`
	AdminJWTSecret        string `mapstructure:"ADMIN_JWT_SECRET"`
	IdentityAPIBaseURL    string `mapstructure:"IDENTITY_API_BASE_URL"`
	IdentityServiceKey    string `mapstructure:"IDENTITY_SERVICE_KEY"`
	StorageAPIBaseURL     string `mapstructure:"STORAGE_API_BASE_URL"`
	StorageServiceKey     string `mapstructure:"STORAGE_SERVICE_KEY"`
	ReportedImagesBucket  string `mapstructure:"REPORTED_IMAGES_BUCKET"`
	PasswordResetsPerHour int    `mapstructure:"PASSWORD_RESETS_PER_HOUR"`
}

// LoadConfig reads configuration from environment variables from the given
// path. It uses Viper to automatically bind environment variables to the
// Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "getmidia:rate_limit")
	viper.SetDefault("REPORTED_IMAGES_BUCKET", "reported_images")
	viper.SetDefault("PASSWORD_RESETS_PER_HOUR", 20)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("ADMIN_JWT_SECRET")
	_ = viper.BindEnv("IDENTITY_API_BASE_URL")
	_ = viper.BindEnv("IDENTITY_SERVICE_KEY")
	_ = viper.BindEnv("STORAGE_API_BASE_URL")
	_ = viper.BindEnv("STORAGE_SERVICE_KEY")
	_ = viper.BindEnv("REPORTED_IMAGES_BUCKET")
	_ = viper.BindEnv("PASSWORD_RESETS_PER_HOUR")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
		err = nil
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	// Hosted platforms inject PORT; prefer it when present.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}

	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "getmidia:rate_limit"
	}
	config.ReportedImagesBucket = strings.TrimSpace(config.ReportedImagesBucket)
	if config.ReportedImagesBucket == "" {
		config.ReportedImagesBucket = "reported_images"
	}
	if config.PasswordResetsPerHour <= 0 {
		config.PasswordResetsPerHour = 20
	}

	return
}
