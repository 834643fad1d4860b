package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store drivers understood by the request store.
const (
	StoreDriverMemory   = "memory"
	StoreDriverFile     = "file"
	StoreDriverRedis    = "redis"
	StoreDriverPostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Board    BoardConfig
	Alerts   AlertsConfig
}

// StoreConfig selects the backend that holds the shared request collection.
type StoreConfig struct {
	Driver        string
	CollectionKey string
	FileDir       string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret         string
	Expiration     time.Duration
	TeacherPINHash string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// BoardConfig tunes the polling and presentation contract of the board.
type BoardConfig struct {
	PollInterval  time.Duration
	AckDuration   time.Duration
	UrgentAckOnly bool
	Timezone      string
	MaxNameLength int
}

// AlertsConfig enables Telegram alerts for the most urgent requests.
type AlertsConfig struct {
	MaxPriority    int
	TelegramToken  string
	TelegramChatID int64
	Workers        int
	Retries        int
	RetryDelay     time.Duration
}

// Enabled reports whether alert delivery has enough configuration to run.
func (c AlertsConfig) Enabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Store = StoreConfig{
		Driver:        strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		CollectionKey: v.GetString("STORE_COLLECTION_KEY"),
		FileDir:       v.GetString("STORE_FILE_DIR"),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:         v.GetString("JWT_SECRET"),
		Expiration:     parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		TeacherPINHash: v.GetString("TEACHER_PIN_HASH"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Board = BoardConfig{
		PollInterval:  parseDuration(v.GetString("BOARD_POLL_INTERVAL"), time.Second),
		AckDuration:   parseDuration(v.GetString("BOARD_ACK_DURATION"), 3*time.Second),
		UrgentAckOnly: v.GetBool("BOARD_URGENT_ACK_ONLY"),
		Timezone:      v.GetString("BOARD_TIMEZONE"),
		MaxNameLength: v.GetInt("BOARD_MAX_NAME_LENGTH"),
	}

	cfg.Alerts = AlertsConfig{
		MaxPriority:    v.GetInt("ALERT_MAX_PRIORITY"),
		TelegramToken:  v.GetString("TELEGRAM_TOKEN"),
		TelegramChatID: v.GetInt64("TELEGRAM_CHAT_ID"),
		Workers:        v.GetInt("ALERT_WORKERS"),
		Retries:        v.GetInt("ALERT_RETRIES"),
		RetryDelay:     parseDuration(v.GetString("ALERT_RETRY_DELAY"), 2*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("STORE_DRIVER", StoreDriverMemory)
	v.SetDefault("STORE_COLLECTION_KEY", "allStudentRequests")
	v.SetDefault("STORE_FILE_DIR", "./data")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "signal_board")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("TEACHER_PIN_HASH", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BOARD_POLL_INTERVAL", "1s")
	v.SetDefault("BOARD_ACK_DURATION", "3s")
	v.SetDefault("BOARD_URGENT_ACK_ONLY", true)
	v.SetDefault("BOARD_TIMEZONE", "Local")
	v.SetDefault("BOARD_MAX_NAME_LENGTH", 64)

	v.SetDefault("ALERT_MAX_PRIORITY", 1)
	v.SetDefault("TELEGRAM_TOKEN", "")
	v.SetDefault("TELEGRAM_CHAT_ID", 0)
	v.SetDefault("ALERT_WORKERS", 1)
	v.SetDefault("ALERT_RETRIES", 3)
	v.SetDefault("ALERT_RETRY_DELAY", "2s")
}

// isMissingFile tolerates an absent .env when SetConfigFile is used, which viper
// reports as a plain fs error rather than ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
