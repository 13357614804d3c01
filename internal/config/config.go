package config

import (
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Backend   BackendConfig
	Auth      AuthConfig
	JWT       JWTConfig
	POS       POSConfig
	Scanner   ScannerConfig
	Printer   PrinterConfig
	Store     StoreConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

// BackendConfig points at the pharmacy REST API.
type BackendConfig struct {
	BaseURL string
}

// AuthConfig selects how the register obtains backend bearer tokens.
// Mode is one of "static", "client_credentials" or "gateway".
type AuthConfig struct {
	Mode          string
	Token         string
	ClientID      string
	ClientSecret  string
	TokenURL      string
	Scopes        []string
	GatewayURL    string
	RefreshCookie string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours time.Duration
}

type POSConfig struct {
	GSTRate      decimal.Decimal
	DedupeWindow time.Duration
	StatusTTL    time.Duration
	HistorySize  int
	WalkInName   string
	CustomerType string
	OrderType    string
}

type ScannerConfig struct {
	StreamURL    string
	FPS          float64
	PreviewWidth int
	MaxFrameSize int64
}

type PrinterConfig struct {
	Type      string // usb, network, none
	USBPath   string
	Address   string
	Timeout   time.Duration
	CharWidth int
}

type StoreConfig struct {
	Name    string
	Address string
	Phone   string
	GSTIN   string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
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

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	setDefaults()
	return build()
}

func setDefaults() {
	viper.SetDefault("APP_NAME", "mvps-pos")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)

	viper.SetDefault("BACKEND_BASE_URL", "http://localhost:8000/api")
	viper.SetDefault("AUTH_MODE", "static")
	viper.SetDefault("AUTH_TOKEN", "")
	viper.SetDefault("AUTH_SCOPES", []string{})
	viper.SetDefault("AUTH_GATEWAY_URL", "http://localhost:8000/gateway")

	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 12)

	viper.SetDefault("POS_GST_RATE", "18")
	viper.SetDefault("POS_DEDUPE_WINDOW", "3s")
	viper.SetDefault("POS_STATUS_TTL", "4s")
	viper.SetDefault("POS_HISTORY_SIZE", 50)
	viper.SetDefault("POS_WALKIN_NAME", "Walk-in Customer")
	viper.SetDefault("POS_CUSTOMER_TYPE", "retail")
	viper.SetDefault("POS_ORDER_TYPE", "online")

	viper.SetDefault("SCANNER_STREAM_URL", "")
	viper.SetDefault("SCANNER_FPS", 10)
	viper.SetDefault("SCANNER_PREVIEW_WIDTH", 160)
	viper.SetDefault("SCANNER_MAX_FRAME_SIZE", 8<<20)

	viper.SetDefault("PRINTER_TYPE", "none")
	viper.SetDefault("PRINTER_USB_PATH", "/dev/usb/lp0")
	viper.SetDefault("PRINTER_ADDRESS", "")
	viper.SetDefault("PRINTER_TIMEOUT", "5s")
	viper.SetDefault("PRINTER_CHAR_WIDTH", 42)

	viper.SetDefault("STORE_NAME", "MVPS Pharmacy")

	viper.SetDefault("DB_ENABLED", false)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "mvps_pos")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Asia/Kolkata")

	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 120)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
}

func build() *Config {
	gst, err := decimal.NewFromString(viper.GetString("POS_GST_RATE"))
	if err != nil {
		log.Printf("Warning: invalid POS_GST_RATE %q, using 18", viper.GetString("POS_GST_RATE"))
		gst = decimal.NewFromInt(18)
	}

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Backend: BackendConfig{
			BaseURL: viper.GetString("BACKEND_BASE_URL"),
		},
		Auth: AuthConfig{
			Mode:          viper.GetString("AUTH_MODE"),
			Token:         viper.GetString("AUTH_TOKEN"),
			ClientID:      viper.GetString("AUTH_CLIENT_ID"),
			ClientSecret:  viper.GetString("AUTH_CLIENT_SECRET"),
			TokenURL:      viper.GetString("AUTH_TOKEN_URL"),
			Scopes:        viper.GetStringSlice("AUTH_SCOPES"),
			GatewayURL:    viper.GetString("AUTH_GATEWAY_URL"),
			RefreshCookie: viper.GetString("AUTH_REFRESH_COOKIE"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ExpiryHours: time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
		},
		POS: POSConfig{
			GSTRate:      gst,
			DedupeWindow: viper.GetDuration("POS_DEDUPE_WINDOW"),
			StatusTTL:    viper.GetDuration("POS_STATUS_TTL"),
			HistorySize:  viper.GetInt("POS_HISTORY_SIZE"),
			WalkInName:   viper.GetString("POS_WALKIN_NAME"),
			CustomerType: viper.GetString("POS_CUSTOMER_TYPE"),
			OrderType:    viper.GetString("POS_ORDER_TYPE"),
		},
		Scanner: ScannerConfig{
			StreamURL:    viper.GetString("SCANNER_STREAM_URL"),
			FPS:          viper.GetFloat64("SCANNER_FPS"),
			PreviewWidth: viper.GetInt("SCANNER_PREVIEW_WIDTH"),
			MaxFrameSize: viper.GetInt64("SCANNER_MAX_FRAME_SIZE"),
		},
		Printer: PrinterConfig{
			Type:      viper.GetString("PRINTER_TYPE"),
			USBPath:   viper.GetString("PRINTER_USB_PATH"),
			Address:   viper.GetString("PRINTER_ADDRESS"),
			Timeout:   viper.GetDuration("PRINTER_TIMEOUT"),
			CharWidth: viper.GetInt("PRINTER_CHAR_WIDTH"),
		},
		Store: StoreConfig{
			Name:    viper.GetString("STORE_NAME"),
			Address: viper.GetString("STORE_ADDRESS"),
			Phone:   viper.GetString("STORE_PHONE"),
			GSTIN:   viper.GetString("STORE_GSTIN"),
		},
		Database: DatabaseConfig{
			Enabled:  viper.GetBool("DB_ENABLED"),
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
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
