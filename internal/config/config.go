package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Firestore FirestoreConfig
	AMQP      AMQPConfig
	Combos    CombosConfig
	JWT       JWTConfig
	Printer   PrinterConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Admin     AdminConfig
}

type AppConfig struct {
	Name     string
	Env      string
	Port     string
	Debug    bool
	BarName  string
	BarPhone string
	LowStock float64
}

// StoreConfig selects the document store driver: memory, postgres or firestore.
type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

type CombosConfig struct {
	File string
}

type JWTConfig struct {
	Secret             string
	ExpiryHours        time.Duration
	RefreshExpiryHours time.Duration
}

type PrinterConfig struct {
	Type    string
	USBPath string
	Address string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

// AdminConfig is the manager account seeded on first start.
type AdminConfig struct {
	Name string
	PIN  string
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "mesa-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("BAR_NAME", "Bar")
	viper.SetDefault("BAR_PHONE", "")
	viper.SetDefault("LOW_STOCK_THRESHOLD", 5)
	viper.SetDefault("STORE_DRIVER", "memory")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "mesa")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "America/Sao_Paulo")
	viper.SetDefault("FIRESTORE_PROJECT_ID", "")
	viper.SetDefault("FIRESTORE_CREDENTIALS_FILE", "")
	viper.SetDefault("AMQP_URL", "")
	viper.SetDefault("AMQP_EXCHANGE", "mesa_events")
	viper.SetDefault("COMBOS_FILE", "config/combos.yaml")
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 12)
	viper.SetDefault("JWT_REFRESH_EXPIRY_HOURS", 168)
	viper.SetDefault("PRINTER_TYPE", "none")
	viper.SetDefault("PRINTER_USB_PATH", "/dev/usb/lp0")
	viper.SetDefault("PRINTER_ADDRESS", "")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 120)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("ADMIN_NAME", "")
	viper.SetDefault("ADMIN_PIN", "")

	return &Config{
		App: AppConfig{
			Name:     viper.GetString("APP_NAME"),
			Env:      viper.GetString("APP_ENV"),
			Port:     viper.GetString("APP_PORT"),
			Debug:    viper.GetBool("APP_DEBUG"),
			BarName:  viper.GetString("BAR_NAME"),
			BarPhone: viper.GetString("BAR_PHONE"),
			LowStock: viper.GetFloat64("LOW_STOCK_THRESHOLD"),
		},
		Store: StoreConfig{
			Driver: viper.GetString("STORE_DRIVER"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
		},
		Firestore: FirestoreConfig{
			ProjectID:       viper.GetString("FIRESTORE_PROJECT_ID"),
			CredentialsFile: viper.GetString("FIRESTORE_CREDENTIALS_FILE"),
		},
		AMQP: AMQPConfig{
			URL:      viper.GetString("AMQP_URL"),
			Exchange: viper.GetString("AMQP_EXCHANGE"),
		},
		Combos: CombosConfig{
			File: viper.GetString("COMBOS_FILE"),
		},
		JWT: JWTConfig{
			Secret:             viper.GetString("JWT_SECRET"),
			ExpiryHours:        time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
			RefreshExpiryHours: time.Duration(viper.GetInt("JWT_REFRESH_EXPIRY_HOURS")) * time.Hour,
		},
		Printer: PrinterConfig{
			Type:    viper.GetString("PRINTER_TYPE"),
			USBPath: viper.GetString("PRINTER_USB_PATH"),
			Address: viper.GetString("PRINTER_ADDRESS"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Admin: AdminConfig{
			Name: viper.GetString("ADMIN_NAME"),
			PIN:  viper.GetString("ADMIN_PIN"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
