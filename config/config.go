package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all console configuration
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Holidays  HolidayConfig
	Map       MapConfig
	Listing   ListingConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port        string `env:"PORT" envDefault:"8090" validate:"required,numeric"`
	Host        string `env:"HOST" envDefault:"127.0.0.1"`
	Environment string `env:"ENVIRONMENT" envDefault:"development" validate:"oneof=development staging production"`
}

// BackendConfig points at the transport REST API the console administers.
type BackendConfig struct {
	BaseURL         string        `env:"API_BASE_URL" envDefault:"http://localhost:5000/api" validate:"required,url"`
	Timeout         time.Duration `env:"API_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	RequestIDHeader string        `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
}

// StorageConfig selects the durable client storage driver.
type StorageConfig struct {
	Driver                  string `env:"STORAGE_DRIVER" envDefault:"file" validate:"oneof=file memory firestore redis"`
	FilePath                string `env:"STORAGE_FILE" envDefault:"./transitdesk-storage.json"`
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH" envDefault:"./serviceAccountKey.json"`
	FirestoreCollection     string `env:"FIRESTORE_COLLECTION" envDefault:"console_storage"`
	RedisAddr               string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB                 int    `env:"REDIS_DB" envDefault:"0" validate:"gte=0"`
	RedisKey                string `env:"REDIS_KEY" envDefault:"transitdesk:storage"`
}

// AuthConfig controls token decoding. An empty secret decodes tokens
// without verifying the signature, the way a browser client does.
type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type HolidayConfig struct {
	URL     string        `env:"HOLIDAY_CALENDAR_URL" envDefault:"https://jayantur13.github.io/calendar-bharat/calendar" validate:"required,url"`
	Timeout time.Duration `env:"HOLIDAY_TIMEOUT" envDefault:"10s" validate:"gt=0"`
}

type MapConfig struct {
	CenterLat float64 `env:"MAP_CENTER_LAT" envDefault:"20.5937" validate:"gte=-90,lte=90"`
	CenterLng float64 `env:"MAP_CENTER_LNG" envDefault:"78.9629" validate:"gte=-180,lte=180"`
	Zoom      int     `env:"MAP_ZOOM" envDefault:"5" validate:"gte=1,lte=19"`
	Style     string  `env:"MAP_STYLE" envDefault:"roadmap" validate:"oneof=roadmap satellite"`
}

type ListingConfig struct {
	ItemsPerPage int `env:"ITEMS_PER_PAGE" envDefault:"10" validate:"gt=0"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
}

type RateLimitConfig struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100" validate:"gt=0"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s" validate:"gt=0"`
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Format string `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadEnv loads the env files that exist and returns how many were read.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads configuration from the process environment
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// Addr is the listen address of the console server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.IsProduction() {
		u, err := url.Parse(c.Backend.BaseURL)
		if err != nil || u.Scheme != "https" {
			return fmt.Errorf("API_BASE_URL must use https in production")
		}
	}

	switch c.Storage.Driver {
	case "file":
		if c.Storage.FilePath == "" {
			return fmt.Errorf("STORAGE_FILE must be set for the file driver")
		}
	case "firestore":
		if c.Storage.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID must be set for the firestore driver")
		}
		if _, err := os.Stat(c.Storage.FirebaseCredentialsPath); os.IsNotExist(err) {
			return fmt.Errorf("firebase credentials file not found: %s", c.Storage.FirebaseCredentialsPath)
		}
	case "redis":
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR must be set for the redis driver")
		}
	}
	return nil
}
