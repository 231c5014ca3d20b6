package config

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/corray333/backend-labs/fooddelivery/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MustInit loads .env secrets and config.yaml, then installs the default logger.
// A missing .env is fine when the environment is provided by the container.
func MustInit() {
	if err := godotenv.Load("./.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("error while loading .env file: " + err.Error())
	}

	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/food-delivery")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		panic("error while reading config file: " + err.Error())
	}

	SetupLogger()
}

func setDefaults() {
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("server.http.port", "8080")
	viper.SetDefault("server.grpc.port", "9090")
	viper.SetDefault("storage.driver", "postgres")
	viper.SetDefault("messaging.driver", "rabbitmq")
	viper.SetDefault("sessions.driver", "redis")
	viper.SetDefault("sessions.ttl_hours", 24)
	viper.SetDefault("tracing.enabled", true)
	viper.SetDefault("postgres.migrations_path", "./migrations")
}

func SetupLogger() {
	handler := logger.NewHandler(&slog.HandlerOptions{
		Level: logger.ParseLevel(viper.GetString("logging.level")),
	})
	log := slog.New(handler)
	slog.SetDefault(log)
}
