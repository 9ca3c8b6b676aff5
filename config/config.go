package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server     ServerConfig
	Logger     LoggerConfig
	Store      StoreConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Stock      StockConfig
	Adjustment AdjustmentConfig
	Reorder    ReorderConfig
}

type ServerConfig struct {
	AppEnv   string
	HTTPPort string
	GRPCPort string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type StoreConfig struct {
	Driver string // postgres | memory
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
	AutoMigrate     bool
}

type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	StockChannel  string
	SubscriberTTL int // seconds
	ListCacheTTL  int // seconds
}

type KafkaConfig struct {
	Brokers          []string
	ReceiptsTopic    string
	GroupID          string
	StockEventsTopic string
}

type StockConfig struct {
	MaxVersionRetries int
	NotifyBuffer      int
	NotifyTimeout     int // milliseconds per sink
}

// AdjustmentConfig holds the manual adjustment thresholds.
type AdjustmentConfig struct {
	DoubleConfirmRatio float64
	SignificantRatio   float64
	MinReasonLength    int
	MaxReasonLength    int
}

type ReorderConfig struct {
	DefaultReorderPoint    int
	MaxReorderPoint        int
	SalesWindowDays        int
	FallbackSuggestion     int
	DefaultLeadTimeDays    int
	DefaultSafetyStockDays int
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "dev"),
			HTTPPort: getEnv("HTTP_PORT", ":8083"),
			GRPCPort: getEnv("GRPC_PORT", ":8084"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Store: StoreConfig{
			Driver: getEnv("STORE_DRIVER", "postgres"),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_inventory"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
			AutoMigrate:     getEnvBool("POSTGRES_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:          getEnv("REDIS_ADDR", "localhost:6379"),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvInt("REDIS_DB", 0),
			StockChannel:  getEnv("REDIS_STOCK_CHANNEL", "stock_updated"),
			SubscriberTTL: getEnvInt("REDIS_SUBSCRIBER_TTL", 3600),
			ListCacheTTL:  getEnvInt("REDIS_LIST_CACHE_TTL", 300),
		},
		Kafka: KafkaConfig{
			Brokers:          getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			ReceiptsTopic:    getEnv("KAFKA_TOPIC_RECEIPTS", "inventory.receipts"),
			GroupID:          getEnv("KAFKA_GROUP_INVENTORY", "inventory"),
			StockEventsTopic: getEnv("KAFKA_TOPIC_STOCK_EVENTS", "inventory.stock-updated"),
		},
		Stock: StockConfig{
			MaxVersionRetries: getEnvInt("STOCK_MAX_VERSION_RETRIES", 3),
			NotifyBuffer:      getEnvInt("STOCK_NOTIFY_BUFFER", 64),
			NotifyTimeout:     getEnvInt("STOCK_NOTIFY_TIMEOUT_MS", 2000),
		},
		Adjustment: AdjustmentConfig{
			DoubleConfirmRatio: getEnvFloat("ADJUSTMENT_DOUBLE_CONFIRM_RATIO", 0.5),
			SignificantRatio:   getEnvFloat("ADJUSTMENT_SIGNIFICANT_RATIO", 0.2),
			MinReasonLength:    getEnvInt("ADJUSTMENT_MIN_REASON_LENGTH", 10),
			MaxReasonLength:    getEnvInt("ADJUSTMENT_MAX_REASON_LENGTH", 500),
		},
		Reorder: ReorderConfig{
			DefaultReorderPoint:    getEnvInt("REORDER_DEFAULT_POINT", 10),
			MaxReorderPoint:        getEnvInt("REORDER_MAX_POINT", 10000),
			SalesWindowDays:        getEnvInt("REORDER_SALES_WINDOW_DAYS", 30),
			FallbackSuggestion:     getEnvInt("REORDER_FALLBACK_SUGGESTION", 10),
			DefaultLeadTimeDays:    getEnvInt("REORDER_LEAD_TIME_DAYS", 7),
			DefaultSafetyStockDays: getEnvInt("REORDER_SAFETY_STOCK_DAYS", 3),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		if value == "" {
			return nil
		}
		return strings.Split(value, ",")
	}
	return fallback
}
