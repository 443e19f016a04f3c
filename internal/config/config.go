/**
 * @description
 * This package handles configuration management for the affiliate-service.
 * It uses the Viper library to read configuration from environment variables
 * (with an optional .env file), providing a centralized way to manage
 * application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: Configuration library.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the affiliate-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort              string `mapstructure:"SERVER_PORT"`
	DatabaseURL             string `mapstructure:"DATABASE_URL"`
	RabbitMQURL             string `mapstructure:"RABBITMQ_URL"`
	RedisURL                string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix    string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	SaleEventQueue          string `mapstructure:"SALE_EVENT_QUEUE"`
	EventExchange           string `mapstructure:"EVENT_EXCHANGE"`
	ClickHashSalt           string `mapstructure:"CLICK_HASH_SALT"`
	ClickRateLimitPerMinute int    `mapstructure:"CLICK_RATE_LIMIT_PER_MINUTE"`
	InternalAPIKey          string `mapstructure:"INTERNAL_API_KEY"`
	AutoPayoutSchedule      string `mapstructure:"AUTO_PAYOUT_SCHEDULE"`
	AutoPayoutEnabled       bool   `mapstructure:"AUTO_PAYOUT_ENABLED"`
}

// LoadConfig reads configuration from environment variables from the given
// path. It uses Viper to automatically bind environment variables to the
// Config struct.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8086")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "affiliate:rate_limit")
	viper.SetDefault("SALE_EVENT_QUEUE", "affiliate_service.sale_events")
	viper.SetDefault("EVENT_EXCHANGE", "shoplane.events")
	viper.SetDefault("CLICK_RATE_LIMIT_PER_MINUTE", 60)
	viper.SetDefault("AUTO_PAYOUT_SCHEDULE", "0 3 * * *")
	viper.SetDefault("AUTO_PAYOUT_ENABLED", true)

	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "AFFILIATE_REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("SALE_EVENT_QUEUE")
	_ = viper.BindEnv("EVENT_EXCHANGE")
	_ = viper.BindEnv("CLICK_HASH_SALT")
	_ = viper.BindEnv("CLICK_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "AFFILIATE_SERVICE_INTERNAL_API_KEY")
	_ = viper.BindEnv("AUTO_PAYOUT_SCHEDULE")
	_ = viper.BindEnv("AUTO_PAYOUT_ENABLED")

	if err = viper.ReadInConfig(); err != nil {
		// A missing .env file is fine; environment values still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	if strings.TrimSpace(config.InternalAPIKey) == "" {
		config.InternalAPIKey = strings.TrimSpace(os.Getenv("AFFILIATE_SERVICE_INTERNAL_API_KEY"))
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "affiliate:rate_limit"
	}
	if config.ClickRateLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative click rate limit configured; coercing to zero\" limit=%d", config.ClickRateLimitPerMinute)
		config.ClickRateLimitPerMinute = 0
	}
	if strings.TrimSpace(config.AutoPayoutSchedule) == "" {
		config.AutoPayoutSchedule = "0 3 * * *"
	}

	return
}
