package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort            string        `mapstructure:"APP_PORT"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	DatabaseName       string        `mapstructure:"DATABASE_NAME"`
	Env                string        `mapstructure:"ENV"`
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	SessionTTL         time.Duration `mapstructure:"SESSION_TTL"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin  int           `mapstructure:"MAX_REQUESTS_PER_MIN"`
	AuthRequestsPerMin int           `mapstructure:"AUTH_REQUESTS_PER_MIN"`
	CORSOrigins        []string      `mapstructure:"CORS_ORIGINS"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Cloudinary avatar storage.
	CloudinaryURL       string `mapstructure:"CLOUDINARY_URL"`
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
	AvatarFolder        string `mapstructure:"AVATAR_FOLDER"`
	DefaultAvatarURL    string `mapstructure:"DEFAULT_AVATAR_URL"`

	// Push notifications. Empty disables FCM.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`

	// Scheduling.
	SuggestionLimit       int           `mapstructure:"SUGGESTION_LIMIT"`
	SuggestionStrategy    string        `mapstructure:"SUGGESTION_STRATEGY"`
	DefaultSessionMinutes int           `mapstructure:"DEFAULT_SESSION_MINUTES"`
	ReminderLead          time.Duration `mapstructure:"REMINDER_LEAD"`
}

var AppConfig Config

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "studybuddy")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("SESSION_TTL", "168h")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("AUTH_REQUESTS_PER_MIN", 10)
	viper.SetDefault("CORS_ORIGINS", []string{"http://localhost:3000"})
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("CLOUDINARY_URL", "")
	viper.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	viper.SetDefault("CLOUDINARY_API_KEY", "")
	viper.SetDefault("CLOUDINARY_API_SECRET", "")
	viper.SetDefault("AVATAR_FOLDER", "studybuddy/avatars")
	viper.SetDefault("DEFAULT_AVATAR_URL", "")
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	viper.SetDefault("SUGGESTION_LIMIT", 10)
	viper.SetDefault("SUGGESTION_STRATEGY", "anchored")
	viper.SetDefault("DEFAULT_SESSION_MINUTES", 120)
	viper.SetDefault("REMINDER_LEAD", "30m")
}

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if AppConfig.JWTSecret == "" {
		if IsProduction() {
			log.Fatal("JWT_SECRET must be set in production")
		}
		AppConfig.JWTSecret = "studybuddy-dev-secret"
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
