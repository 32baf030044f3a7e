package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	SeatLock   SeatLockConfig
	Booking    BookingConfig
	Settlement SettlementConfig
}

type AppConfig struct {
	Name        string
	Port        string
	Debug       bool
	LogPath     string
	AutoMigrate bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

const (
	SeatLockBackendPostgres = "postgres"
	SeatLockBackendRedis    = "redis"
)

type SeatLockConfig struct {
	Backend         string
	Window          time.Duration
	Retention       time.Duration
	CompactInterval time.Duration
}

type BookingConfig struct {
	BatchRefLength      int
	BatchRefMaxAttempts int
	MaxSeatsPerBatch    int
}

type SettlementConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	viper.SetDefault("APP_NAME", "cinema-ticketing")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("AUTO_MIGRATE", false)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SEAT_LOCK_BACKEND", SeatLockBackendPostgres)
	viper.SetDefault("SEAT_LOCK_WINDOW", "5m")
	viper.SetDefault("SEAT_LOCK_RETENTION", "24h")
	viper.SetDefault("SEAT_LOCK_COMPACT_INTERVAL", "1h")
	viper.SetDefault("BATCH_REF_LENGTH", 6)
	viper.SetDefault("BATCH_REF_MAX_ATTEMPTS", 64)
	viper.SetDefault("MAX_SEATS_PER_BATCH", 20)
	viper.SetDefault("SETTLEMENT_POLL_INTERVAL", "2s")
	viper.SetDefault("SETTLEMENT_BATCH_SIZE", 50)
	viper.SetDefault("SETTLEMENT_MAX_ATTEMPTS", 5)

	// .env is optional in containers where everything comes from the environment
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:        viper.GetString("APP_NAME"),
			Port:        viper.GetString("PORT"),
			Debug:       viper.GetBool("DEBUG"),
			LogPath:     viper.GetString("LOG_PATH"),
			AutoMigrate: viper.GetBool("AUTO_MIGRATE"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		SeatLock: SeatLockConfig{
			Backend:         viper.GetString("SEAT_LOCK_BACKEND"),
			Window:          viper.GetDuration("SEAT_LOCK_WINDOW"),
			Retention:       viper.GetDuration("SEAT_LOCK_RETENTION"),
			CompactInterval: viper.GetDuration("SEAT_LOCK_COMPACT_INTERVAL"),
		},
		Booking: BookingConfig{
			BatchRefLength:      viper.GetInt("BATCH_REF_LENGTH"),
			BatchRefMaxAttempts: viper.GetInt("BATCH_REF_MAX_ATTEMPTS"),
			MaxSeatsPerBatch:    viper.GetInt("MAX_SEATS_PER_BATCH"),
		},
		Settlement: SettlementConfig{
			PollInterval: viper.GetDuration("SETTLEMENT_POLL_INTERVAL"),
			BatchSize:    viper.GetInt("SETTLEMENT_BATCH_SIZE"),
			MaxAttempts:  viper.GetInt("SETTLEMENT_MAX_ATTEMPTS"),
		},
	}

	return config, nil
}
