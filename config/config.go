package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB       int `mapstructure:"REDIS_SESSION_DB"`
	RedisCatalogDB       int `mapstructure:"REDIS_CATALOG_DB"`
	RedisReminderQueueDB int `mapstructure:"REDIS_REMINDER_QUEUE_DB"`

	// POS backend (booking system of record).
	POSBaseURL        string `mapstructure:"POS_BASE_URL"`
	POSAPIKey         string `mapstructure:"POS_API_KEY"`
	POSTimeoutSeconds int    `mapstructure:"POS_TIMEOUT_SECONDS"`

	// Reply generation.
	GeminiAPIKey        string `mapstructure:"GEMINI_API_KEY"`
	ReplyTimeoutSeconds int    `mapstructure:"REPLY_TIMEOUT_SECONDS"`

	// Scheduling.
	SlotWidthMinutes  int    `mapstructure:"SLOT_WIDTH_MINUTES"`
	DefaultStartTime  string `mapstructure:"DEFAULT_START_TIME"`
	SessionTTLMinutes int    `mapstructure:"SESSION_TTL_MINUTES"`

	// Payment link construction for online payment methods.
	PaymentLinkBaseURL string `mapstructure:"PAYMENT_LINK_BASE_URL"`

	// Appointment reminders.
	ReminderLeadHours int `mapstructure:"REMINDER_LEAD_HOURS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_CATALOG_DB", 1)
	viper.SetDefault("REDIS_REMINDER_QUEUE_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("POS_BASE_URL", "http://localhost:9000")
	viper.SetDefault("POS_API_KEY", "")
	viper.SetDefault("POS_TIMEOUT_SECONDS", 10)
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("REPLY_TIMEOUT_SECONDS", 5)
	viper.SetDefault("SLOT_WIDTH_MINUTES", 30)
	viper.SetDefault("DEFAULT_START_TIME", "10:00")
	viper.SetDefault("SESSION_TTL_MINUTES", 30)
	viper.SetDefault("PAYMENT_LINK_BASE_URL", "https://pay.glowdesk.app/orders")
	viper.SetDefault("REMINDER_LEAD_HOURS", 24)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// POSTimeout returns the bounded timeout for POS backend calls.
func POSTimeout() time.Duration {
	return time.Duration(AppConfig.POSTimeoutSeconds) * time.Second
}

// SessionTTL returns the inactivity window after which sessions expire.
func SessionTTL() time.Duration {
	return time.Duration(AppConfig.SessionTTLMinutes) * time.Minute
}
