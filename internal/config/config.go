package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port                          string   `mapstructure:"PORT"`
	DatabaseDriver                string   `mapstructure:"DATABASE_DRIVER"`
	DatabasePath                  string   `mapstructure:"DATABASE_PATH"`
	DatabaseDSN                   string   `mapstructure:"DATABASE_DSN"`
	JWTSecret                     string   `mapstructure:"JWT_SECRET"`
	LogLevel                      string   `mapstructure:"LOG_LEVEL"`
	LogPretty                     bool     `mapstructure:"LOG_PRETTY"`
	EnableCORS                    bool     `mapstructure:"ENABLE_CORS"`
	CORSOrigins                   []string `mapstructure:"CORS_ORIGINS"`
	DefaultAdminUsername          string   `mapstructure:"DEFAULT_ADMIN_USERNAME"`
	DefaultAdminPassword          string   `mapstructure:"DEFAULT_ADMIN_PASSWORD"`
	PaymentMethod                 string   `mapstructure:"PAYMENT_METHOD"`
	DiscordBotToken               string   `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string   `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	AMQPURL                       string   `mapstructure:"AMQP_URL"`
	AMQPExchange                  string   `mapstructure:"AMQP_EXCHANGE"`
}

func LoadConfig() *Config {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_PATH", "events.db")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CORS_ORIGINS", []string{"http://127.0.0.1:5173"})
	viper.SetDefault("DEFAULT_ADMIN_USERNAME", "admin")
	viper.SetDefault("DEFAULT_ADMIN_PASSWORD", "password")
	viper.SetDefault("PAYMENT_METHOD", "bkash")
	viper.SetDefault("AMQP_EXCHANGE", "registrations")

	viper.BindEnv("DATABASE_DSN")
	viper.BindEnv("JWT_SECRET")
	viper.BindEnv("LOG_PRETTY")
	viper.BindEnv("ENABLE_CORS")
	viper.BindEnv("DISCORD_BOT_TOKEN")
	viper.BindEnv("DISCORD_NOTIFICATIONS_CHANNEL_ID")
	viper.BindEnv("AMQP_URL")

	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	if config.JWTSecret == "" {
		log.Printf("JWT_SECRET is not set; admin sessions will not survive a restart")
		config.JWTSecret = randomSecret()
	}

	return &config
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("Failed to generate JWT secret: %v", err)
	}
	return hex.EncodeToString(b)
}
