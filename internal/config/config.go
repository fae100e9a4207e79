package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration.
type Config struct {
	AppPort string
	AppEnv  string

	StoreDriver string
	DBDriver    string
	DatabaseDSN string
	MongoURI    string
	MongoDB     string
	DBTimeout   time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string

	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string

	RabbitMQURL   string
	OrderIDPrefix string
	CORSOrigins   string
	LogFile       string
}

// Store drivers.
const (
	StoreMemory = "memory"
	StoreGORM   = "gorm"
	StoreMongo  = "mongo"
)

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("STORE_DRIVER", StoreGORM)
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "storefront.db")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "storefront")
	v.SetDefault("DB_TIMEOUT", "5s")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "720h")
	v.SetDefault("RAZORPAY_KEY_ID", "")
	v.SetDefault("RAZORPAY_KEY_SECRET", "")
	v.SetDefault("RAZORPAY_BASE_URL", "https://api.razorpay.com")
	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_PHONE_NUMBER", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("ORDER_ID_PREFIX", "CKT")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("LOG_FILE", "")
}

// Load reads defaults, an optional YAML file named by CONFIG_FILE, then the environment.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	return FromViper(v)
}

// FromViper resolves and validates a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:           v.GetString("APP_PORT"),
		AppEnv:            strings.ToLower(v.GetString("APP_ENV")),
		StoreDriver:       strings.ToLower(v.GetString("STORE_DRIVER")),
		DBDriver:          strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		MongoURI:          v.GetString("MONGO_URI"),
		MongoDB:           v.GetString("MONGO_DATABASE"),
		DBTimeout:         v.GetDuration("DB_TIMEOUT"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		JWTTTL:            v.GetDuration("JWT_TTL"),
		RazorpayKeyID:     v.GetString("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: v.GetString("RAZORPAY_KEY_SECRET"),
		RazorpayBaseURL:   v.GetString("RAZORPAY_BASE_URL"),
		TwilioAccountSID:  v.GetString("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   v.GetString("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber: v.GetString("TWILIO_PHONE_NUMBER"),
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
		OrderIDPrefix:     v.GetString("ORDER_ID_PREFIX"),
		CORSOrigins:       v.GetString("CORS_ORIGINS"),
		LogFile:           v.GetString("LOG_FILE"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	switch cfg.StoreDriver {
	case StoreMemory, StoreGORM, StoreMongo:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.StoreDriver == StoreGORM && cfg.DBDriver != "sqlite" && cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.DBTimeout <= 0 {
		cfg.DBTimeout = 5 * time.Second
	}
	if cfg.JWTTTL <= 0 {
		cfg.JWTTTL = 30 * 24 * time.Hour
	}
	if cfg.OrderIDPrefix == "" {
		cfg.OrderIDPrefix = "CKT"
	}
	return cfg, nil
}

// IsDevelopment reports whether raw error details may be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
